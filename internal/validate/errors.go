// Package validate checks the structural consistency of the units loaded
// into a universe.
package validate

import "fmt"

// Error is a validation problem found in a unit.
type Error struct {
	Subject string // the entity the problem was found on
	Msg     string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Msg)
}

// ErrorHandler is called for each problem found.
type ErrorHandler func(subject, msg string)

// errorf reports a problem on subject.
func (c *Checker) errorf(subject fmt.Stringer, format string, args ...any) {
	s := subject.String()
	msg := fmt.Sprintf(format, args...)

	if c.errors == 0 {
		c.first = &Error{Subject: s, Msg: msg}
	}
	c.errors++

	if c.conf.Error != nil {
		c.conf.Error(s, msg)
	}
}
