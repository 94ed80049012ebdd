package config

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type ctxKey string

const userIDKey ctxKey = "log_user_id"

var Logger = logrus.New()

// InitLogger configures the shared logger. Unknown levels fall back to info.
func InitLogger(level, format string) {
	Logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	Logger.SetFormatter(&logrus.JSONFormatter{})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithContext returns a log entry tagged with the request id and the
// authenticated user, when present.
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(Logger)
	if ctx == nil {
		return entry
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		entry = entry.WithField("request_id", reqID)
	}
	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	return entry
}
