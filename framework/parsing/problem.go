// Package parsing reports problems found while reading configuration
// documents.
//
// A Problem carries a Severity. Fatal and error problems abort the read;
// warnings are logged and the read continues.
package parsing

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/errs"
)

// Severity of a Problem.
type Severity int

const (
	Warning Severity = iota
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Problem describes one issue in a document.
type Problem struct {
	Severity Severity
	Message  string
	Resource string // document description, e.g. "file [config/app.xml]"
	Element  string // offending element or id, optional
	Cause    error
}

func (p Problem) String() string {
	s := p.Message
	if p.Element != "" {
		s += " (element " + p.Element + ")"
	}
	if p.Resource != "" {
		s += "\nOffending resource: " + p.Resource
	}
	return s
}

// Reporter receives problems. Report returns a non-nil error when the
// reader must stop.
type Reporter interface {
	Report(p Problem) error
}

// ProblemError is the aborting error produced for fatal and error problems.
type ProblemError struct {
	Problem Problem
}

func (e *ProblemError) Error() string {
	return fmt.Sprintf("configuration problem (%s): %s", e.Problem.Severity, e.Problem)
}

func (e *ProblemError) Unwrap() error { return e.Problem.Cause }

// Is matches errs.ErrParsing.
func (e *ProblemError) Is(target error) bool { return target == errs.ErrParsing }

// FailFastReporter aborts on the first fatal or error problem and logs
// warnings.
type FailFastReporter struct {
	logger *zap.Logger
}

// NewFailFastReporter creates a reporter. A nil logger discards warnings.
func NewFailFastReporter(logger *zap.Logger) *FailFastReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailFastReporter{logger: logger}
}

// Report implements Reporter.
func (r *FailFastReporter) Report(p Problem) error {
	if p.Severity >= Error {
		return &ProblemError{Problem: p}
	}
	r.logger.Warn(p.Message,
		zap.String("resource", p.Resource),
		zap.String("element", p.Element),
		zap.Error(p.Cause),
	)
	return nil
}

// Collector records every problem and never aborts. Useful in tests and
// for linting documents.
type Collector struct {
	Problems []Problem
}

// Report implements Reporter.
func (c *Collector) Report(p Problem) error {
	c.Problems = append(c.Problems, p)
	return nil
}
