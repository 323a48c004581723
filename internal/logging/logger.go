package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where the process log goes.
type Options struct {
	File       string // empty disables the rotating file
	MaxSizeMB  int
	MaxAgeDays int
	Level      string
	Stderr     bool
}

// New builds the JSON process logger. The rotating file is written through
// lumberjack; Stderr mirrors the same entries to the terminal.
func New(opts Options) (*zap.Logger, io.Closer, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	var cores []zapcore.Core
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  opts.MaxSizeMB, // megabytes
			MaxAge:   opts.MaxAgeDays, // days
		}
		closer = lj
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), level))
	}
	if opts.Stderr {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), closer, nil
	}

	return zap.New(zapcore.NewTee(cores...)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
