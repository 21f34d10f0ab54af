package rank

import (
	"fmt"
	"log/slog"
)

// Option configures an Aggregator.
type Option func(*Aggregator) error

// WithLimit sets the default number of document-level matches kept.
func WithLimit(limit int) Option {
	return func(a *Aggregator) error {
		if limit <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
		}
		a.limit = limit
		return nil
	}
}

// WithDepth sets the default traversal depth.
func WithDepth(depth Depth) Option {
	return func(a *Aggregator) error {
		if depth < DepthRoot || depth > DepthSubFragment {
			return fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
		}
		a.depth = depth
		return nil
	}
}

// WithMetric sets the score read from candidates. When isDistance is true
// lower scores rank first.
func WithMetric(metric string, isDistance bool) Option {
	return func(a *Aggregator) error {
		if metric == "" {
			return ErrInvalidMetric
		}
		a.metric = metric
		a.isDistance = isDistance
		return nil
	}
}

// WithEpsilon sets the raw-score threshold below which the diversity ceiling applies.
func WithEpsilon(epsilon float64) Option {
	return func(a *Aggregator) error {
		a.epsilon = epsilon
		return nil
	}
}

// WithDiversityCeiling sets the diversity assigned to near-zero matches.
func WithDiversityCeiling(ceiling int) Option {
	return func(a *Aggregator) error {
		a.diversityCeiling = ceiling
		return nil
	}
}

// WithTrace toggles the per-candidate operand trace on representative matches.
func WithTrace(enabled bool) Option {
	return func(a *Aggregator) error {
		a.trace = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}
