// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/storage"
)

// ProcessorType identifies the re-embedding job's checkpoint.
const ProcessorType = "fragment_reembed"

// Config controls a re-embedding run.
type Config struct {
	// BatchSize is the number of fragments to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of fragments)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Restart ignores a saved checkpoint and re-embeds every fragment
	Restart bool
}

// DefaultConfig returns the default run configuration.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder re-embeds every stored fragment.
type Reembedder struct {
	fragments   storage.FragmentRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *FragmentIterator
	logger      *slog.Logger
}

// NewReembedder creates a re-embedder. checkpoints may be nil, in which case
// every run starts from the first fragment.
func NewReembedder(fragments storage.FragmentRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		fragments:   fragments,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(fragments, embedder, config.MaxRetries, config.RetryDelay),
		iterator:    NewFragmentIterator(fragments, config.BatchSize),
		logger:      slog.Default().With("component", "reembed"),
	}
}

// Run re-embeds fragments from the saved checkpoint, or from the start. A
// checkpoint is saved after every batch and removed once all fragments are done.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.fragments.CountFragments(ctx)
	if err != nil {
		return fmt.Errorf("failed to count fragments: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No fragments found in database (0 fragments)\n")
		return nil
	}

	after, err := r.resumePoint(ctx)
	if err != nil {
		return err
	}
	if after != 0 {
		fmt.Fprintf(r.progress, "Resuming after fragment %s\n", after)
	}
	fmt.Fprintf(r.progress, "Starting reembedding of %d fragments (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, "fragments", total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, after, func(batch []*core.Fragment) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(batch)
		tracker.Update(processed)
		return r.saveCheckpoint(ctx, batch[len(batch)-1].ID)
	})
	if err != nil {
		return err
	}
	tracker.Finish()

	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, ProcessorType); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d fragments in %v (%.1f fragments/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())
	r.logger.Info("reembedding complete", "fragments", processed, "elapsed", elapsed)
	return nil
}

func (r *Reembedder) resumePoint(ctx context.Context) (core.ID, error) {
	if r.checkpoints == nil || r.config.Restart {
		return 0, nil
	}
	cp, err := r.checkpoints.LoadCheckpoint(ctx, ProcessorType)
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil || cp.LastKey == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(cp.LastKey, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidCheckpoint, cp.LastKey, err)
	}
	return core.ID(id), nil
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, last core.ID) error {
	if r.checkpoints == nil {
		return nil
	}
	return r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: ProcessorType,
		LastKey:       last.String(),
	})
}
