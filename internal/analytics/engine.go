package analytics

import (
	"context"
	"errors"

	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/stages"
)

// Defaults for callers that do not choose a window or result size.
const (
	DefaultDays      = 30
	DefaultPathLimit = 10
)

// Query bounds an analysis. A zero Query covers every recorded event.
type Query struct {
	Window  journey.Window
	Channel string
}

// Engine answers journey queries against a journey.Source.
//
// Each call loads a fresh Dataset, so two calls over the same stored
// events and window return identical results. The engine holds no state
// between calls beyond its source and clock.
type Engine struct {
	src   journey.Source
	clock journey.Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to resolve "last N days/hours" windows.
func WithClock(c journey.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// NewEngine creates an engine reading from src.
func NewEngine(src journey.Source, opts ...Option) *Engine {
	e := &Engine{src: src, clock: journey.SystemClock{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stages returns the registered stages in ascending order.
func (e *Engine) Stages(ctx context.Context) ([]journey.FunnelStage, error) {
	reg, err := e.registry(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Stages(), nil
}

// AnalyzeFunnel computes stage metrics over the last days days,
// optionally restricted to one channel.
func (e *Engine) AnalyzeFunnel(ctx context.Context, days int, channel string) ([]journey.StageMetric, error) {
	if err := journey.RequireInRange("days", days, journey.MaxWindowDays); err != nil {
		return nil, err
	}
	return e.FunnelFor(ctx, Query{Window: journey.LastDays(e.clock.Now(), days), Channel: channel})
}

// FunnelFor computes stage metrics for an explicit query.
func (e *Engine) FunnelFor(ctx context.Context, q Query) ([]journey.StageMetric, error) {
	d, err := e.load(ctx, journey.Filter{Channel: q.Channel}, touchFilter(q))
	if err != nil {
		return nil, err
	}
	return Funnel(d), nil
}

// TopPaths ranks conversion paths over every recorded event.
func (e *Engine) TopPaths(ctx context.Context, limit int) ([]journey.Path, error) {
	return e.PathsFor(ctx, Query{}, limit)
}

// PathsFor ranks conversion paths for an explicit query.
func (e *Engine) PathsFor(ctx context.Context, q Query, limit int) ([]journey.Path, error) {
	if err := journey.RequirePositive("limit", limit); err != nil {
		return nil, err
	}
	d, err := e.load(ctx, journey.Filter{Channel: q.Channel}, touchFilter(q))
	if err != nil {
		return nil, err
	}
	return TopPaths(d, limit)
}

// AnalyzeDropoffs reports sessions that abandoned the named stage, over
// every recorded event.
func (e *Engine) AnalyzeDropoffs(ctx context.Context, stage string) (journey.DropoffReport, error) {
	return e.DropoffsFor(ctx, Query{}, stage)
}

// DropoffsFor reports stage abandonment for an explicit query.
func (e *Engine) DropoffsFor(ctx context.Context, q Query, stage string) (journey.DropoffReport, error) {
	reg, err := e.registry(ctx)
	if err != nil {
		return journey.DropoffReport{}, err
	}
	if reg.Index(stage) < 0 {
		return journey.DropoffReport{}, journey.NewUnknownStageError(stage)
	}
	d, err := e.loadWith(ctx, reg, journey.Filter{Channel: q.Channel}, touchFilter(q))
	if err != nil {
		return journey.DropoffReport{}, err
	}
	return Dropoffs(d, stage)
}

// ChannelAttribution aggregates sessions started in the last days days by channel.
func (e *Engine) ChannelAttribution(ctx context.Context, days int) ([]journey.ChannelAttribution, error) {
	if err := journey.RequireInRange("days", days, journey.MaxWindowDays); err != nil {
		return nil, err
	}
	return e.AttributionFor(ctx, Query{Window: journey.LastDays(e.clock.Now(), days)})
}

// AttributionFor aggregates by channel for an explicit query. The window
// selects sessions by start time and touchpoints by occurrence.
func (e *Engine) AttributionFor(ctx context.Context, q Query) ([]journey.ChannelAttribution, error) {
	d, err := e.load(ctx, journey.Filter{Window: q.Window, Channel: q.Channel}, touchFilter(q))
	if err != nil {
		return nil, err
	}
	return Attribution(d), nil
}

// LTVSegments buckets every customer with a recorded LTV.
func (e *Engine) LTVSegments(ctx context.Context, buckets int) ([]journey.LTVSegment, error) {
	if err := journey.RequirePositive("buckets", buckets); err != nil {
		return nil, err
	}
	sessions, err := e.src.Sessions(ctx, journey.Filter{})
	if err != nil {
		return nil, storageErr("read sessions", err)
	}
	return LTVSegments(sessions, buckets)
}

// Heatmap counts touchpoints of the last hours hours by weekday and hour.
func (e *Engine) Heatmap(ctx context.Context, hours int) (journey.Heatmap, error) {
	if err := journey.RequireInRange("hours", hours, journey.MaxWindowHours); err != nil {
		return journey.Heatmap{}, err
	}
	return e.HeatmapFor(ctx, Query{Window: journey.LastHours(e.clock.Now(), hours)})
}

// HeatmapFor counts touchpoints for an explicit query.
func (e *Engine) HeatmapFor(ctx context.Context, q Query) (journey.Heatmap, error) {
	tps, err := e.src.Touchpoints(ctx, touchFilter(q))
	if err != nil {
		return journey.Heatmap{}, storageErr("read touchpoints", err)
	}
	return BuildHeatmap(tps), nil
}

func (e *Engine) registry(ctx context.Context) (*stages.Registry, error) {
	list, err := e.src.Stages(ctx)
	if err != nil {
		return nil, storageErr("read stages", err)
	}
	reg, err := stages.NewRegistry(list...)
	if err != nil {
		return nil, storageErr("load stages", err)
	}
	return reg, nil
}

func (e *Engine) load(ctx context.Context, sf, tf journey.Filter) (*Dataset, error) {
	reg, err := e.registry(ctx)
	if err != nil {
		return nil, err
	}
	return e.loadWith(ctx, reg, sf, tf)
}

func (e *Engine) loadWith(ctx context.Context, reg *stages.Registry, sf, tf journey.Filter) (*Dataset, error) {
	sessions, err := e.src.Sessions(ctx, sf)
	if err != nil {
		return nil, storageErr("read sessions", err)
	}
	tps, err := e.src.Touchpoints(ctx, tf)
	if err != nil {
		return nil, storageErr("read touchpoints", err)
	}
	return NewDataset(reg, sessions, tps), nil
}

func touchFilter(q Query) journey.Filter {
	return journey.Filter{Window: q.Window, Channel: q.Channel}
}

// storageErr wraps err as a StorageError unless it already is one.
func storageErr(op string, err error) error {
	var se *journey.StorageError
	if errors.As(err, &se) {
		return err
	}
	return journey.NewStorageError(op, err)
}
