package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edukite/catalog-api/pkg/config"
	"github.com/edukite/catalog-api/pkg/middleware/requestid"
)

// New builds a zap logger for the given environment. Production gets the
// sampled JSON defaults, everything else the development setup; the log
// config then overrides encoding and level.
func New(env string, cfg config.LogConfig) (*zap.Logger, error) {
	base := zap.NewDevelopmentConfig()
	if env == config.EnvProduction {
		base = zap.NewProductionConfig()
	}

	switch cfg.Format {
	case "console", "json":
		base.Encoding = cfg.Format
	}

	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			lvl = zapcore.InfoLevel
		}
		base.Level = zap.NewAtomicLevelAt(lvl)
	}

	base.EncoderConfig.TimeKey = "timestamp"
	base.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return base.Build()
}

// GinMiddleware logs one line per request after the handler chain has run.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		l.Info("request completed", fields...)
	}
}
