package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/simp-lee/logger"
)

// SetupLogger builds the process logger from cfg and installs it as the slog
// default, so packages that only see *slog.Logger share its handler. The
// caller owns the returned logger and must Close it to flush file output.
func SetupLogger(cfg *LogConfig) (*logger.Logger, error) {
	if cfg == nil {
		return nil, errors.New("log config is nil")
	}

	log, err := logger.New(BuildLoggerOpts(cfg)...)
	if err != nil {
		return nil, err
	}
	log.SetDefault()

	log.Debug("logger ready",
		slog.String("level", ParseLevel(cfg.Level).String()),
		slog.String("format", strings.ToLower(cfg.Format)),
		slog.String("file", cfg.FilePath),
	)
	return log, nil
}

// BuildLoggerOpts translates cfg into logger options. Console output always
// carries the level, context attributes (request id, tenant), format and
// color. A file sink is added only when FilePath is set, with one option per
// configured rotation field. It returns nil for a nil cfg.
func BuildLoggerOpts(cfg *LogConfig) []logger.Option {
	if cfg == nil {
		return nil
	}

	format := outputFormat(cfg.Format)
	opts := []logger.Option{
		logger.WithLevel(ParseLevel(cfg.Level)),
		logger.WithMiddleware(logger.ContextMiddleware()),
		logger.WithConsoleFormat(format),
		logger.WithConsoleColor(colorEnabled(cfg.Color, format)),
	}

	if cfg.FilePath == "" {
		return opts
	}
	opts = append(opts, logger.WithFilePath(cfg.FilePath), logger.WithFileFormat(format))
	if cfg.MaxSizeMB > 0 {
		opts = append(opts, logger.WithMaxSizeMB(cfg.MaxSizeMB))
	}
	if cfg.RetentionDays > 0 {
		opts = append(opts, logger.WithRetentionDays(cfg.RetentionDays))
	}
	if cfg.MaxBackups > 0 {
		opts = append(opts, logger.WithMaxBackups(cfg.MaxBackups))
	}
	if cfg.CompressRotated != nil {
		opts = append(opts, logger.WithCompressRotated(*cfg.CompressRotated))
	}
	return opts
}

func outputFormat(s string) logger.OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return logger.FormatText
	case "json":
		return logger.FormatJSON
	default:
		return logger.FormatCustom
	}
}

// colorEnabled defaults to true, except for JSON where escape codes would end
// up inside field values.
func colorEnabled(color *bool, format logger.OutputFormat) bool {
	if format == logger.FormatJSON {
		return false
	}
	if color == nil {
		return true
	}
	return *color
}

// ParseLevel converts a level name to its slog.Level. Unrecognized values
// map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
