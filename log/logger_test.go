package log

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(v ...interface{})                 {}
func (l *recordingLogger) Debugf(format string, v ...interface{}) {}
func (l *recordingLogger) Notice(v ...interface{})                {}
func (l *recordingLogger) Noticef(format string, v ...interface{}) {
}
func (l *recordingLogger) Info(v ...interface{})                 {}
func (l *recordingLogger) Infof(format string, v ...interface{}) {}
func (l *recordingLogger) Warning(v ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprint(v...))
}
func (l *recordingLogger) Warningf(format string, v ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, v...))
}
func (l *recordingLogger) Error(v ...interface{})                 {}
func (l *recordingLogger) Errorf(format string, v ...interface{}) {}

func TestWarnLatch(t *testing.T) {
	rec := &recordingLogger{}
	latch := NewWarnLatch(rec)

	for i := 0; i < 5; i++ {
		latch.Warningf("failure %d", i)
	}
	if len(rec.warnings) != 1 {
		t.Fatalf("expected latch to emit 1 warning; got %d", len(rec.warnings))
	}

	latch.Reset()
	if !latch.Warningf("failure again") {
		t.Fatal("expected re-armed latch to emit a warning")
	}
	if len(rec.warnings) != 2 {
		t.Fatalf("expected 2 warnings after reset; got %d", len(rec.warnings))
	}
}

func TestSinkAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer func() {
		SetSink(os.Stdout)
		SetLevel(Notice)
	}()

	logger := New("log_test")
	logger.Info("hidden")
	logger.Notice("shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "[log_test]") || !strings.Contains(out, "shown") {
		t.Fatalf("expected only notice records at the default level; got %q", out)
	}

	// The level survives a sink change.
	SetLevel(Debug)
	buf.Reset()
	SetSink(&buf)
	logger.Debug("verbose")
	if !strings.Contains(buf.String(), "verbose") {
		t.Fatalf("expected debug record after raising verbosity; got %q", buf.String())
	}

	SetLevel(Level(42))
	logger.Debug("still verbose")
	if !strings.Contains(buf.String(), "still verbose") {
		t.Fatal("expected unknown level to be ignored")
	}
}
