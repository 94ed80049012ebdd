package llm

import (
	"context"
	"time"

	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/sirupsen/logrus"
)

type loggingProvider struct {
	inner Provider
}

// WithLogging logs every call with its purpose, latency and outcome.
func WithLogging(p Provider) Provider {
	return &loggingProvider{inner: p}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := l.inner.Generate(ctx, req)

	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"purpose":    string(PurposeFrom(ctx)),
		"model":      l.inner.ModelID(),
		"json_mode":  req.JSON,
		"latency_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("LLM call failed")
		return text, err
	}
	log.WithField("response_bytes", len(text)).Info("LLM call succeeded")
	log.Debugf("LLM raw response:\n%s", text)
	return text, nil
}

func (l *loggingProvider) ModelID() string {
	return l.inner.ModelID()
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds each call. A non-positive timeout returns p unchanged.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: timeout}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
