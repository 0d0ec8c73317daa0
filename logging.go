package tantivy

import (
	"os"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConsoleLogger builds a JSON zap.Logger writing to stdout at the given
// level, the same encoder configuration the teacher server uses for its
// non-stackdriver console logger.
func NewConsoleLogger(level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(newJSONEncoder(), zapcore.Lock(os.Stdout), level)
	return zap.New(core, zap.AddCaller())
}

// NewFileLogger builds a JSON zap.Logger that rotates through lumberjack,
// for hosts that want segment-engine diagnostics written to a log file
// instead of stdout.
func NewFileLogger(path string, level zapcore.Level) *zap.Logger {
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxAge:     28,
		MaxBackups: 3,
		LocalTime:  true,
		Compress:   true,
	})
	core := zapcore.NewCore(newJSONEncoder(), writer, level)
	return zap.New(core, zap.AddCaller())
}

func newJSONEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
}

// loggerOrNop returns logger, or a no-op logger if it is nil, so that
// every component can log unconditionally without a nil check at each
// call site.
func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
