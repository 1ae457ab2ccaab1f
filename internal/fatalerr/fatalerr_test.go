package fatalerr

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTestingReporterPanicsWithViolation(t *testing.T) {
	r := NewTesting(zap.NewNop())

	var caught *Violation
	func() {
		defer func() {
			if v := recover(); v != nil {
				caught, _ = v.(*Violation)
			}
		}()
		r.Fatalf("capacity exceeded", zap.Int("capacity", 256))
	}()

	require.NotNil(t, caught, "Fatalf must panic with a *Violation")
	require.Equal(t, "capacity exceeded", caught.Message)
	require.Equal(t, "fatalerr: capacity exceeded", caught.String())
}

func TestNilLoggerDefaultsToNop(t *testing.T) {
	r := NewTesting(nil)
	require.PanicsWithValue(t, &Violation{Message: "boom"}, func() {
		r.Fatalf("boom")
	})
}
