package bm25

import (
	"fmt"
	"log/slog"
)

// Option configures an Index.
type Option func(*Index) error

// WithK1 sets the term frequency saturation parameter. Default is 1.5.
func WithK1(k1 float64) Option {
	return func(ix *Index) error {
		if k1 < 0 {
			return fmt.Errorf("%w: k1 = %v", ErrInvalidParameter, k1)
		}
		ix.k1 = k1
		return nil
	}
}

// WithB sets the length normalization parameter, in [0, 1]. Default is 0.75.
func WithB(b float64) Option {
	return func(ix *Index) error {
		if b < 0 || b > 1 {
			return fmt.Errorf("%w: b = %v", ErrInvalidParameter, b)
		}
		ix.b = b
		return nil
	}
}

// WithDelimiter sets the token delimiter. Default is a single space.
func WithDelimiter(delimiter string) Option {
	return func(ix *Index) error {
		if delimiter == "" {
			return fmt.Errorf("%w: empty delimiter", ErrInvalidParameter)
		}
		ix.delimiter = delimiter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}
