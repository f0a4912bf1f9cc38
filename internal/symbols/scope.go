package symbols

// Frame is one entry of the scope stack.
// Anonymous frames track nesting (anonymous aggregates, function bodies) without
// contributing to scope paths.
type Frame struct {
	Name      string
	Kind      Kind
	Anonymous bool
}

// ScopeStack is the explicit scope bookkeeping used during traversal.
type ScopeStack struct {
	frames []Frame
}

// Push enters a scope.
func (s *ScopeStack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop leaves the innermost scope. Popping an empty stack is a no-op.
func (s *ScopeStack) Pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth returns the number of frames, anonymous ones included.
func (s *ScopeStack) Depth() int {
	return len(s.frames)
}

// Top returns the innermost frame.
func (s *ScopeStack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// InFunction reports whether any enclosing frame is a function body.
func (s *ScopeStack) InFunction() bool {
	for _, f := range s.frames {
		if f.Kind.IsCallable() {
			return true
		}
	}
	return false
}

// Path returns a fresh copy of the named frames, outermost first.
// The result never aliases the stack, so later pushes and pops cannot change it.
func (s *ScopeStack) Path() []string {
	path := make([]string, 0, len(s.frames))
	for _, f := range s.frames {
		if f.Anonymous {
			continue
		}
		path = append(path, f.Name)
	}
	return path
}
