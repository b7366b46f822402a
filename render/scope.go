package render

import "github.com/yuusoft-org/jempl/value"

// Scope is a linked stack of variable frames, the representation §9
// recommends and the shape the teacher's soyhtml scope.go uses verbatim:
// lookups walk from the innermost frame outward, falling through to the
// root render data on a full miss.
type Scope struct {
	top *frame
}

type frame struct {
	vars   map[string]value.Value
	parent *frame
}

// NewScope returns an empty scope chain.
func NewScope() *Scope {
	return &Scope{}
}

// Push opens a new innermost frame, e.g. for a loop iteration or partial
// expansion.
func (s *Scope) Push() {
	s.top = &frame{vars: make(map[string]value.Value), parent: s.top}
}

// Pop discards the innermost frame.
func (s *Scope) Pop() {
	if s.top != nil {
		s.top = s.top.parent
	}
}

// Set binds name in the innermost frame.
func (s *Scope) Set(name string, v value.Value) {
	if s.top == nil {
		s.Push()
	}
	s.top.vars[name] = v
}

// Lookup searches frames innermost-first. ok is false on a full miss,
// which callers resolve against root render data instead.
func (s *Scope) Lookup(name string) (value.Value, bool) {
	for f := s.top; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}
