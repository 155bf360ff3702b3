// Package engine implements the claims denial analytics core: normalize,
// aggregate, rank, infer root causes, and recommend remediations. A run is
// a pure function of its input records plus options; the engine holds no
// cross-run state.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/claimsight/denials-cli/internal/model"
)

// Engine executes analysis runs with a fixed set of options.
type Engine struct {
	opts Options
	now  func() time.Time
}

// New validates the options and returns an engine. A nil catalog falls back
// to the built-in default.
func New(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts, now: time.Now}, nil
}

// WithClock replaces the engine clock; the result timestamp is its only
// non-input-derived field, so pinning it makes runs byte-reproducible.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Analyze is the single entry point: raw records in, structured result out.
// Per-record problems are logged and skipped; only misconfiguration fails
// the run. Zero valid records is success with empty trend lists.
func Analyze(ctx context.Context, records []model.RawClaim, opts Options) (*model.AnalysisResult, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	return e.Analyze(ctx, records)
}

// Analyze runs the full pipeline over the supplied records.
func (e *Engine) Analyze(ctx context.Context, records []model.RawClaim) (*model.AnalysisResult, error) {
	// Revalidate so a mutated Options copy still fails before processing.
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}

	start := e.now()
	claims, rejections := Normalize(records)

	result := &model.AnalysisResult{
		GeneratedAt:    start.UTC(),
		RuleSetVersion: e.opts.Catalog.Version,
		Params:         e.opts.Params(),
		Rejections:     *rejections,
		Dimensions:     make([]model.DimensionResult, len(e.opts.Dimensions)),
	}

	// Dimensions are independent; fan out and merge by index so the output
	// order matches the requested order regardless of scheduling.
	grp, grpCtx := errgroup.WithContext(ctx)
	for i, dim := range e.opts.Dimensions {
		grp.Go(func() error {
			dr, err := e.analyzeDimension(grpCtx, claims, dim)
			if err != nil {
				return err
			}
			result.Dimensions[i] = dr
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("engine: analysis complete",
		zap.Int("records", len(records)),
		zap.Int("valid", rejections.ValidRecords),
		zap.Int("dimensions", len(e.opts.Dimensions)),
		zap.String("rule_set", e.opts.Catalog.Version),
	)
	return result, nil
}

func (e *Engine) analyzeDimension(ctx context.Context, claims []model.ClaimRecord, dim model.Dimension) (model.DimensionResult, error) {
	if err := ctx.Err(); err != nil {
		return model.DimensionResult{}, err
	}

	groups := Aggregate(claims, []model.Dimension{dim}, e.opts.PayerWindows)
	trends, full, excluded := Rank(groups, e.opts)
	if trends == nil {
		trends = []model.DenialTrend{}
	}
	if full == nil {
		full = []model.RankedGroup{}
	}

	// Per-trend inference is independent over read-only evidence.
	grp, _ := errgroup.WithContext(ctx)
	for i := range trends {
		grp.Go(func() error {
			trends[i].Attributions = Infer(trends[i].Group, e.opts.Catalog, e.opts.PayerWindows)
			trends[i].Recommendations = Recommend(trends[i], e.opts.PayerWindows)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return model.DimensionResult{}, err
	}

	return model.DimensionResult{
		Dimension:         string(dim),
		Trends:            trends,
		FullRanking:       full,
		GroupCount:        len(groups),
		ExcludedLowVolume: excluded,
	}, nil
}
