package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo on the store's driver and the global
// sequence counter.
type eventRepo struct {
	store *Store
}

type llmEventRow struct {
	ID           int    `sql:"id"`
	Sequence     int64  `sql:"sequence"`
	Timestamp    int64  `sql:"timestamp"`
	Provider     string `sql:"provider"`
	Model        string `sql:"model"`
	Purpose      string `sql:"purpose"`
	InputTokens  int    `sql:"input_tokens"`
	OutputTokens int    `sql:"output_tokens"`
	LatencyMs    int64  `sql:"latency_ms"`
	Success      bool   `sql:"success"`
	ErrorMessage string `sql:"error_message"`
	RequestBody  string `sql:"request_body"`
	ResponseBody string `sql:"response_body"`
}

func (r llmEventRow) event() LLMEvent {
	return LLMEvent{
		ID:        r.ID,
		Sequence:  r.Sequence,
		Timestamp: fromMillis(r.Timestamp),
		LLMRequestEventData: LLMRequestEventData{
			Provider:     r.Provider,
			Model:        r.Model,
			Purpose:      r.Purpose,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			LatencyMs:    r.LatencyMs,
			Success:      r.Success,
			ErrorMessage: r.ErrorMessage,
			RequestBody:  r.RequestBody,
			ResponseBody: r.ResponseBody,
		},
	}
}

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.store.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	err = execQuery(ctx, r.store.drv, builder().Insert(LlmEventsTable.Name).
		Columns(llmEventColumns[1:]...).
		Values(
			seqNum, millis(r.store.now()), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody,
		))
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", millis(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", millis(opts.To)))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}

	sel := builder().Select(llmEventColumns...).
		From(builder().Table(LlmEventsTable.Name)).
		OrderBy(entsql.Desc("sequence"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	var rows []llmEventRow
	if err := scanAll(ctx, r.store.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	events := make([]LLMEvent, len(rows))
	for i, row := range rows {
		events[i] = row.event()
	}
	return events, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	var rows []llmEventRow
	sel := builder().Select(llmEventColumns...).
		From(builder().Table(LlmEventsTable.Name)).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, r.store.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	e := rows[0].event()
	return &e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

func (r *eventRepo) usage(ctx context.Context, groupBy string) ([]LLMUsage, error) {
	sel := builder().Select(
		groupBy,
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As("CAST(AVG(`latency_ms`) AS INTEGER)", "avg_latency_ms"),
	).
		From(builder().Table(LlmEventsTable.Name)).
		GroupBy(groupBy).
		OrderBy(entsql.Desc("calls"))

	var usage []LLMUsage
	if err := scanAll(ctx, r.store.drv, sel, &usage); err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by %s: %w", groupBy, err)
	}
	return usage, nil
}
