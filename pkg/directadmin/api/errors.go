package api

import "fmt"

// Error is a failure reported by the DirectAdmin server. Text and Details
// are passed through verbatim.
type Error struct {
	Command string
	Status  int
	Text    string
	Details string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("directadmin %s: status %d", e.Command, e.Status)
	if e.Text != "" {
		msg += ": " + e.Text
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}
