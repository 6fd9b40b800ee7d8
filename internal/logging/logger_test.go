package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWritesConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	zl := logger.Zerolog()
	zl.Info().Str("table", "jobs").Msg("table created")

	out := buf.String()
	if !strings.Contains(out, "table created") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "jobs") {
		t.Errorf("output missing field: %q", out)
	}
}

func TestSetGlobalLevelSuppressesDebug(t *testing.T) {
	SetGlobalLevel(zerolog.InfoLevel)
	defer SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := NewLogger(&buf)

	zl := logger.Zerolog()
	zl.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output not suppressed: %q", buf.String())
	}

	SetGlobalLevel(zerolog.DebugLevel)
	zl.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug output missing after level change: %q", buf.String())
	}
}
