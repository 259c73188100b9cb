package log

import (
	"io"
	"os"
	"sync"

	"github.com/op/go-logging"
)

// Verbosity levels, ordered from the most to the least verbose.
type Level uint8

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

// Backend level for each Level value.
var backendLevels = [...]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

// Records look like "[15:04:05.000] [module] [LEVEL] message"; the level
// prefix is colored when the sink is a terminal.
var recordFormat = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var (
	backendMu sync.Mutex
	backend   logging.LeveledBackend
	level     = Notice
)

// Logger is the subset of the go-logging API used across the module. It is
// satisfied by *logging.Logger and by test doubles.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Get the logger for a module. Loggers share the global sink and level.
func New(module string) Logger {
	return logging.MustGetLogger(module)
}

// Redirect all loggers to sink. The current level is kept.
func SetSink(sink io.Writer) {
	backendMu.Lock()
	defer backendMu.Unlock()

	formatted := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), recordFormat)
	backend = logging.AddModuleLevel(formatted)
	backend.SetLevel(backendLevels[level], "")
	logging.SetBackend(backend)
}

// Set the verbosity of all loggers. Unknown levels are ignored.
func SetLevel(l Level) {
	if int(l) >= len(backendLevels) {
		return
	}

	backendMu.Lock()
	defer backendMu.Unlock()

	level = l
	backend.SetLevel(backendLevels[l], "")
}

// A WarnLatch emits a warning only once until it is re-armed. It is used by
// components that hit the same non-fatal failure on every frame.
type WarnLatch struct {
	mu     sync.Mutex
	logger Logger
	fired  bool
}

// Create a latch that writes to the given logger.
func NewWarnLatch(logger Logger) *WarnLatch {
	return &WarnLatch{logger: logger}
}

// Log a warning unless the latch already fired. Returns true if the warning
// was emitted.
func (l *WarnLatch) Warningf(format string, v ...interface{}) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fired {
		return false
	}
	l.fired = true
	l.logger.Warningf(format, v...)
	return true
}

// Re-arm the latch so the next failure gets reported again.
func (l *WarnLatch) Reset() {
	l.mu.Lock()
	l.fired = false
	l.mu.Unlock()
}

func init() {
	SetSink(os.Stdout)
}
