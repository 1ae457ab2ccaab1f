// Package fatalerr implements the fatal-error reporter collaborator used
// throughout bravolock. Contract violations — exhausting the thread-id
// pool, misusing SetCapacity, unlocking a guard that doesn't hold the
// lock — are bugs, not operating conditions, and are reported through
// this package rather than as returned errors.
package fatalerr

import (
	"fmt"

	"go.uber.org/zap"
)

// Reporter reports an unrecoverable invariant violation. Implementations
// must not return; Fatalf either terminates the process (production) or
// panics with a recognizable value (tests).
type Reporter interface {
	Fatalf(violation string, fields ...zap.Field)
}

// production reports violations through a zap.Logger at Fatal level,
// which logs the message and then calls os.Exit(1).
type production struct {
	logger *zap.Logger
}

// NewProduction returns a Reporter backed by a production zap logger.
// This is the default Reporter used by the public bravo and threadid
// constructors when none is supplied.
func NewProduction() Reporter {
	logger, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder/sink config,
		// which can't happen with the default config. Fall back to a
		// logger that still terminates the process.
		logger = zap.NewNop()
	}
	return &production{logger: logger}
}

func (p *production) Fatalf(violation string, fields ...zap.Field) {
	p.logger.Fatal(violation, fields...)
}

// Violation is the panic payload raised by a Testing reporter. Tests
// recover it to assert which invariant fired instead of exiting the test
// binary.
type Violation struct {
	Message string
	Fields  []zap.Field
}

func (v *Violation) Error() string {
	return v.Message
}

func (v *Violation) String() string {
	return fmt.Sprintf("fatalerr: %s", v.Message)
}

// testing is a Reporter for unit tests: it can't let the process exit, so
// it logs at Error level through the supplied logger and then panics with
// a *Violation.
type testing struct {
	logger *zap.Logger
}

// NewTesting returns a Reporter suitable for unit tests. Violations are
// logged through logger (pass zap.NewNop() to silence them) and then
// raised as a panic(*Violation), which test code recovers and inspects.
func NewTesting(logger *zap.Logger) Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &testing{logger: logger}
}

func (t *testing) Fatalf(violation string, fields ...zap.Field) {
	t.logger.Error(violation, fields...)
	panic(&Violation{Message: violation, Fields: fields})
}
