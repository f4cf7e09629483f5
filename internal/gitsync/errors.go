package gitsync

import (
	"fmt"
	"strings"
)

// PushError reports which git step failed along with its combined output.
type PushError struct {
	Step   string
	Output string
	Err    error
}

func (e *PushError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("git %s failed", e.Step)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += " (" + lastLine(out) + ")"
	}
	return msg
}

func (e *PushError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
