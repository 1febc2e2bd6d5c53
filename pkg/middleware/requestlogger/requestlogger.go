package requestlogger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

type Config struct {
	WithRequestQuery bool     `mapstructure:"request_query"`
	Disable          bool     `mapstructure:"disable"`    // Disable logger level `INFO`
	SkipPaths        []string `mapstructure:"skip_paths"` // e.g. scrape endpoints
}

// New logs every completed request. Failed requests are logged at ERROR even when disabled.
func New(config Config) fiber.Handler {
	skipPaths := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Continue stack
		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			if e := new(fiber.Error); errors.As(err, &e) {
				status = e.Code
			} else if status < http.StatusInternalServerError {
				status = http.StatusInternalServerError
			}
		}

		level := slog.LevelInfo
		attrs := []slog.Attr{
			slog.String("event", "http_request"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Int("status", status),
			slog.Int64("latency", latency.Milliseconds()),
			slog.String("latencyHuman", latency.String()),
		}
		if config.WithRequestQuery {
			attrs = append(attrs, slog.String("query", string(c.Request().URI().QueryString())))
		}
		if err != nil || status >= http.StatusInternalServerError {
			level = slog.LevelError
			logErr := err
			if logErr == nil {
				logErr = fiber.NewError(status)
			}
			attrs = append(attrs, slog.Any(logger.ErrorKey, logErr))
		}

		if level == slog.LevelInfo {
			if _, skip := skipPaths[c.Path()]; skip || config.Disable {
				return errors.WithStack(err)
			}
		}

		logger.LogAttrs(c.UserContext(), level, "Request Completed", attrs...)
		return errors.WithStack(err)
	}
}
