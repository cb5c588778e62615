package blueprint

import "github.com/sghaida/graft/keys"

// Trace is one step of a resolution path: which constructor was entered,
// through which parameter name, for which requested key.
type Trace struct {
	Source string
	Param  string
	Key    keys.Key
}

func (t Trace) String() string {
	return "(" + t.Param + ": " + t.Source + " -> " + t.Key.String() + ")"
}

func (t Trace) equal(other Trace) bool {
	return t.Source == other.Source &&
		t.Param == other.Param &&
		t.Key.Equal(other.Key)
}

// Traces is the ordered path taken during recursive resolution, used for
// cycle detection and diagnostics. A Traces value is never mutated in
// place; Chain returns an extended copy.
type Traces []Trace

// Chain returns a new path with t appended.
func (ts Traces) Chain(t Trace) Traces {
	out := make(Traces, 0, len(ts)+1)
	out = append(out, ts...)
	return append(out, t)
}

// Contains reports whether the path already visited t. A revisit is the
// cyclic-dependency condition.
func (ts Traces) Contains(t Trace) bool {
	for _, step := range ts {
		if step.equal(t) {
			return true
		}
	}
	return false
}

func (ts Traces) String() string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += "->"
		}
		s += t.String()
	}
	return s
}
