package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/mock"
)

func TestResult_Rows(t *testing.T) {
	numOfRows := 10
	result := new(core.Result)

	err := result.SetIter(mock.NewResultStream(mock.NewRows(0, numOfRows)))
	require.NoError(t, err)

	testCases := []struct {
		name          string
		from          int
		to            int
		expectedRows  []core.Row
		expectedError error
	}{
		{
			name:         "get all",
			from:         0,
			to:           -1,
			expectedRows: mock.NewRows(0, numOfRows),
		},
		{
			name:         "get basic range",
			from:         0,
			to:           3,
			expectedRows: mock.NewRows(0, 3),
		},
		{
			name:         "get last 2",
			from:         -3,
			to:           -1,
			expectedRows: mock.NewRows(numOfRows-2, numOfRows),
		},
		{
			name:         "range past the end is clamped",
			from:         8,
			to:           100,
			expectedRows: mock.NewRows(8, numOfRows),
		},
		{
			name:          "invalid range",
			from:          5,
			to:            1,
			expectedError: core.ErrInvalidRange(5, 1),
		},
		{
			name:          "invalid range (even if 10 can be higher than -1, its undefined and should fail)",
			from:          -5,
			to:            10,
			expectedError: core.ErrInvalidRange(-5, 10),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := result.Rows(tc.from, tc.to)
			if tc.expectedError != nil {
				require.EqualError(t, err, tc.expectedError.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedRows, rows)
		})
	}
}

func TestResult_SetIterError(t *testing.T) {
	expected := errors.New("broken stream")
	result := new(core.Result)

	err := result.SetIter(mock.NewResultStream(mock.NewRows(0, 3), mock.ResultStreamWithNextError(1, expected)))
	require.ErrorIs(t, err, expected)
}

func TestResult_Append(t *testing.T) {
	r := require.New(t)

	first := core.NewResult(core.Header{"id", "name"}, mock.NewRows(0, 2))
	second := core.NewResult(core.Header{"id", "name"}, mock.NewRows(2, 5))

	first.Append(second)

	r.Equal(5, first.Len())
	r.Equal(mock.NewRows(0, 5), first.AllRows())
}
