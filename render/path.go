package render

import (
	"strconv"
	"strings"
	"sync"

	"github.com/yuusoft-org/jempl/value"
)

// segment is one step of a resolved variable path: either a mapping key
// or a sequence index.
type segment struct {
	name    string
	index   int
	isIndex bool
}

// pathCache memoizes parsed path segments by their source string. It is
// process-wide, read-dominant, and append-only: entries are never
// removed, so concurrent renders may read it freely while another render
// populates a new entry (§5).
var pathCache sync.Map // string -> []segment

func getSegments(path string) []segment {
	if v, ok := pathCache.Load(path); ok {
		return v.([]segment)
	}
	segs := parsePath(path)
	pathCache.Store(path, segs)
	return segs
}

// parsePath splits a dot-segmented path with optional bracket
// sub-segments, e.g. "users[0].name" -> [users] [0] [name]. A bracket
// whose contents are purely digits is a numeric index; anything else is
// treated as a property name (§4.3).
func parsePath(path string) []segment {
	var segs []segment
	for _, dotSeg := range strings.Split(path, ".") {
		if dotSeg == "" {
			continue
		}
		i := strings.IndexByte(dotSeg, '[')
		if i == -1 {
			segs = append(segs, segment{name: dotSeg})
			continue
		}
		if i > 0 {
			segs = append(segs, segment{name: dotSeg[:i]})
		}
		rest := dotSeg[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			inner := rest[1:end]
			if n, err := strconv.Atoi(inner); err == nil {
				segs = append(segs, segment{isIndex: true, index: n})
			} else {
				segs = append(segs, segment{name: inner})
			}
			rest = rest[end+1:]
		}
	}
	return segs
}

// resolvePath resolves a dotted path against the scope chain, falling
// back to root data when the first segment misses every frame. A missing
// intermediate lookup at any depth silently yields Absent (§4.3).
func resolvePath(scope *Scope, root value.Value, path string) value.Value {
	segs := getSegments(path)
	if len(segs) == 0 {
		return value.Absent{}
	}

	var cur value.Value
	if v, ok := scope.Lookup(segs[0].name); ok {
		cur = v
	} else {
		cur = lookupSegment(root, segs[0])
	}

	for _, seg := range segs[1:] {
		if value.IsAbsent(cur) {
			return value.Absent{}
		}
		cur = lookupSegment(cur, seg)
	}
	if cur == nil {
		return value.Absent{}
	}
	return cur
}

func lookupSegment(v value.Value, seg segment) value.Value {
	if value.IsAbsent(v) {
		return value.Absent{}
	}
	if seg.isIndex {
		seq, ok := v.(value.Sequence)
		if !ok {
			return value.Absent{}
		}
		return seq.Index(seg.index)
	}
	m, ok := v.(*value.Mapping)
	if !ok {
		return value.Absent{}
	}
	return m.Key(seg.name)
}
