package ir

import "fmt"

// Fault reports an internal-consistency violation: one table references
// an id another table does not know. It signals a bug in a pass, never a
// problem with user input, and is raised with panic.
type Fault struct {
	Msg string
}

func (f *Fault) Error() string {
	return "internal consistency fault: " + f.Msg
}

// Faultf panics with a *Fault.
func Faultf(format string, args ...any) {
	panic(&Fault{Msg: fmt.Sprintf(format, args...)})
}
