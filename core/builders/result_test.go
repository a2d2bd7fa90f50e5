package builders_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
)

func TestResult_CloseRunsCallbackOnce(t *testing.T) {
	r := require.New(t)

	closed, called := 0, 0
	served := false

	result := builders.NewResultBuilder().
		WithNextFunc(
			func() (core.Row, error) {
				if served {
					return nil, errors.New("no next row")
				}
				served = true
				return core.Row{1}, nil
			},
			func() bool { return !served },
		).
		WithHeader(core.Header{"one"}).
		WithCloseFunc(func() { closed++ }).
		Build()
	result.SetCallback(func() { called++ })

	r.True(result.HasNext())
	row, err := result.Next()
	r.NoError(err)
	r.Equal(core.Row{1}, row)

	result.Close()
	result.Close()

	r.False(result.HasNext())
	r.Equal(1, closed)
	r.Equal(1, called)
}

func TestResult_NextErrorCloses(t *testing.T) {
	r := require.New(t)

	closed := 0
	result := builders.NewResultBuilder().
		WithNextFunc(
			func() (core.Row, error) { return nil, errors.New("broken cursor") },
			func() bool { return true },
		).
		WithCloseFunc(func() { closed++ }).
		Build()

	_, err := result.Next()
	r.ErrorContains(err, "broken cursor")
	r.Equal(1, closed)
	r.False(result.HasNext())
}
