package zapLogger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once sync.Once
	Log  *zap.SugaredLogger
)

// Options controls where and how much the logger writes.
type Options struct {
	Level string // debug, info, warn, error
	File  string // optional log file, appended to
	// Output replaces stdout as the console writer when set.
	Output io.Writer
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a logger and returns the opened log file handle, if any.
// The caller owns the file.
func New(opts Options) (*zap.Logger, *os.File, error) {
	var console io.Writer = os.Stdout
	if opts.Output != nil {
		console = opts.Output
	}
	writers := []zapcore.WriteSyncer{zapcore.AddSync(console)}

	var logFile *os.File
	if opts.File != "" {
		var err error
		logFile, err = os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, zapcore.AddSync(logFile))
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.NewMultiWriteSyncer(writers...),
		ParseLevel(opts.Level),
	)

	return zap.New(core, zap.AddCaller()), logFile, nil
}

// Init initializes the process logger once and returns the opened log file handle
func Init(opts Options) *os.File {
	var logFile *os.File
	once.Do(func() {
		base, f, err := New(opts)
		if err != nil {
			panic("cannot open log file: " + err.Error())
		}
		logFile = f
		Log = base.WithOptions(zap.AddCallerSkip(1)).Sugar()
	})
	return logFile
}

// Named returns a child of the process logger, or a no-op logger before Init.
func Named(name string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log.Desugar().WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

// FiberLoggingMiddleware returns Fiber's built-in logger middleware writing logs to stdout and given logFile
func FiberLoggingMiddleware(logFile *os.File) fiber.Handler {
	var out io.Writer = os.Stdout
	if logFile != nil {
		out = io.MultiWriter(os.Stdout, logFile)
	}
	return logger.New(logger.Config{
		Output:     out,
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	})
}
