package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger_Levels(t *testing.T) {
	r := require.New(t)

	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithLevel("warn"), WithField("component", "engine"))

	l.Infof("hidden %d", 1)
	l.Warnf("percentile fallback for %s", "id")

	out := buf.String()
	r.NotContains(out, "hidden")
	r.Contains(out, "percentile fallback for id")
	r.Contains(out, "component=engine")
}

func TestLogger_File(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "sqlio.log")
	l := New(WithFile(path), WithLevel("debug"))
	l.With("conn", "abc").Debug("opened connection")
	l.Close()

	b, err := os.ReadFile(path)
	r.NoError(err)
	r.Contains(string(b), "opened connection")
	r.Contains(string(b), "conn=abc")
}

func TestLogger_InvalidLevelKeepsDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithLevel("loud"))

	l.Info("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestValidateLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		require.NoError(t, ValidateLevel(level), level)
	}

	err := ValidateLevel("loud")
	require.Error(t, err)
	require.Contains(t, err.Error(), `"loud"`)
}
