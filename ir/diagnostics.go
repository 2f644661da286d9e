package ir

import (
	"fmt"
	"io"
)

// Warning is a recoverable diagnostic raised while building or emitting a
// graph - the caller chose to keep going rather than abort the whole run.
type Warning struct {
	Stage   string
	Subject string
	Message string
}

func (w Warning) String() string {
	if w.Subject != "" {
		return fmt.Sprintf("%s: %s: %s", w.Stage, w.Subject, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// Diagnostics accumulates warnings raised over the lifetime of a Converter
// or Writer.
type Diagnostics struct {
	Warnings []Warning
}

func (d *Diagnostics) warn(stage, subject, format string, args ...any) {
	d.Warnings = append(d.Warnings, Warning{
		Stage:   stage,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	})
}

// WriteTo prints every collected warning, one per line.
func (d *Diagnostics) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, warning := range d.Warnings {
		n, err := fmt.Fprintln(w, warning.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
