package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/shelf/internal/store"
)

// LoggingProvider records every call, failed or not, in the request log.
type LoggingProvider struct {
	inner  Provider
	events store.EventRepo
	logger *slog.Logger
	now    func() time.Time
}

// WithLogging decorates p. A nil logger means slog.Default().
func WithLogging(p Provider, events store.EventRepo, logger *slog.Logger) *LoggingProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, events: events, logger: logger, now: time.Now}
}

func (l *LoggingProvider) Name() string    { return l.inner.Name() }
func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := l.now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    l.inner.Name(),
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   l.now().Sub(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// The caller's context may already be done; the log write must not be.
	if logErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); logErr != nil {
		l.logger.Warn("record llm request failed",
			"provider", ev.Provider,
			"purpose", ev.Purpose,
			"error", logErr,
		)
	}
	l.logger.Debug("llm request",
		"provider", ev.Provider,
		"model", ev.Model,
		"purpose", ev.Purpose,
		"latency_ms", ev.LatencyMs,
		"success", ev.Success,
	)
	return resp, err
}

// transcript renders a request the way `shelf llm view` shows it.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
