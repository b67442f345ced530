package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

// TestParseLogLevel tests level-name parsing including aliases and rejects
func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"info":    logger.INFO,
		"":        logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"ERROR":   logger.ERROR,
	}
	for name, want := range cases {
		got, err := ParseLogLevel(name)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level name")
	}
}

// TestLoggerLevelGate tests that messages below the configured level are
// suppressed
func TestLoggerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	l := newSessionLogger("conn", &buf)

	l.SetLevel(logger.WARNING)
	l.Debugf("dropped %d", 1)
	l.Infof("dropped %d", 2)
	l.Warningf("kept %d", 3)
	l.Errorf("kept %d", 4)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("Suppressed message was written: %q", out)
	}
	if !strings.Contains(out, "WRN conn") || !strings.Contains(out, "kept 3") {
		t.Errorf("Expected warning line, got: %q", out)
	}
	if !strings.Contains(out, "ERR conn") || !strings.Contains(out, "kept 4") {
		t.Errorf("Expected error line, got: %q", out)
	}
}

// TestLoggerPanicf tests that Panicf fires regardless of the level
func TestLoggerPanicf(t *testing.T) {
	var buf bytes.Buffer
	l := newSessionLogger("wire", &buf)
	l.SetLevel(logger.ERROR)

	defer func() {
		if recover() == nil {
			t.Error("Expected Panicf to panic")
		}
		if !strings.Contains(buf.String(), "PNC wire") {
			t.Errorf("Expected panic line, got: %q", buf.String())
		}
	}()

	l.Panicf("boom")
}
