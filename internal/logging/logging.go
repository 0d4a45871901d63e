// Package logging builds the zap loggers used by the command line.
package logging

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrUnknownLevel is returned for level names zap does not recognize.
var ErrUnknownLevel = errors.New("unknown log level")

// Options selects the level and encoding of a logger.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// JSON selects structured output for machine consumption.
	JSON bool
	// Output receives log lines. Nil means stderr.
	Output io.Writer
}

// New returns a sugared logger configured by opts.
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrapf(ErrUnknownLevel, "%q", opts.Level)
		}
		level = l
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeCaller = nil
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	return zap.New(core).Sugar(), nil
}
