package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	auth "github.com/goliatone/go-cms-auth"
)

// Config mirrors config.LoggerConfig but avoids importing the config package here.
type Config struct {
	Level    string
	Encoding string
	// Output defaults to stderr so command output on stdout stays clean.
	Output io.Writer
}

// New builds a zap.Logger using the provided configuration.
func New(cfg Config) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		// fall back to info level if parsing fails
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(zapcore.Lock(zapcore.AddSync(out))),
		level,
	)

	return zap.New(core, zap.AddCaller()), nil
}

// AuthLogger adapts a zap logger to the auth.Logger contract.
type AuthLogger struct {
	sugar *zap.SugaredLogger
}

var _ auth.Logger = (*AuthLogger)(nil)

// NewAuthLogger wraps base. A nil base yields a no-op logger.
func NewAuthLogger(base *zap.Logger) *AuthLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &AuthLogger{
		sugar: base.WithOptions(zap.AddCallerSkip(1)).Named("auth").Sugar(),
	}
}

func (l *AuthLogger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *AuthLogger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *AuthLogger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *AuthLogger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}
