package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
	"github.com/custodia-labs/ragdesk/internal/postprocessors/chunker"
)

// EmbeddingPipeline chunks document text, embeds the chunks and stores them.
//
// Batches run one after another; the embed calls inside a batch run
// concurrently. Chunk failures are logged and skipped, so a document always
// reaches a terminal status.
type EmbeddingPipeline struct {
	lifecycle *LifecycleManager
	vectors   driven.VectorStore
	embedder  driven.EmbeddingService
	chunker   *chunker.Processor

	batchSize  int
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RunResult summarises one pipeline run.
type RunResult struct {
	Chunks   int
	Embedded int
}

// NewEmbeddingPipeline creates a pipeline. embedder may be nil, in which
// case chunks are stored without vectors and documents end up ungrounded.
func NewEmbeddingPipeline(
	lifecycle *LifecycleManager,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	settings domain.PipelineSettings,
) *EmbeddingPipeline {
	defaults := domain.DefaultAppSettings().Pipeline
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = defaults.ChunkSize
	}
	if settings.BatchSize < 1 {
		settings.BatchSize = defaults.BatchSize
	}
	if settings.BatchDelay < 0 {
		settings.BatchDelay = 0
	}

	base, cancel := context.WithCancel(context.Background())
	return &EmbeddingPipeline{
		lifecycle: lifecycle,
		vectors:   vectors,
		embedder:  embedder,
		chunker: chunker.New(
			chunker.WithChunkSize(settings.ChunkSize),
			chunker.WithOverlap(settings.ChunkOverlap),
		),
		batchSize:  settings.BatchSize,
		batchDelay: settings.BatchDelay,
		sleep:      sleepContext,
		base:       base,
		cancel:     cancel,
	}
}

// Process embeds a document in the background and returns immediately.
// The run outlives ctx; only Close stops it.
func (p *EmbeddingPipeline) Process(ctx context.Context, documentID, content string) {
	p.Go(ctx, func(runCtx context.Context) {
		if _, err := p.ProcessSync(runCtx, documentID, content); err != nil {
			logger.Warn("pipeline: document %s failed: %v", documentID, err)
		}
	})
}

// Go runs fn in a tracked goroutine. The context passed to fn keeps the
// values of ctx but is cancelled only by Close.
func (p *EmbeddingPipeline) Go(ctx context.Context, fn func(ctx context.Context)) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(p.base, cancel)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		defer stop()
		fn(runCtx)
	}()
}

// ProcessSync runs the pipeline inline and returns once the document has
// reached a terminal status. The returned error is the cause recorded on a
// failed document.
func (p *EmbeddingPipeline) ProcessSync(ctx context.Context, documentID, content string) (RunResult, error) {
	var result RunResult

	logger.Section("Embedding Pipeline")
	logger.Debug("Document %s: %d bytes", documentID, len(content))

	chunks, err := p.chunker.Chunks(documentID, content)
	if err != nil {
		return result, p.fail(ctx, documentID, fmt.Errorf("chunk content: %w", err))
	}
	result.Chunks = len(chunks)
	logger.Debug("Document %s: %d chunks in batches of %d", documentID, len(chunks), p.batchSize)

	if p.embedder == nil && len(chunks) > 0 {
		logger.Warn("pipeline: no embedding service, storing %d chunks of %s without vectors", len(chunks), documentID)
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return result, p.fail(ctx, documentID, fmt.Errorf("embed batches: %w", err))
		}

		end := min(start+p.batchSize, len(chunks))
		result.Embedded += p.runBatch(ctx, chunks[start:end])
		logger.Debug("Document %s: batch %d-%d done, %d embedded so far", documentID, start, end, result.Embedded)

		if end < len(chunks) && p.batchDelay > 0 {
			if err := p.sleep(ctx, p.batchDelay); err != nil {
				return result, p.fail(ctx, documentID, fmt.Errorf("embed batches: %w", err))
			}
		}
	}

	finishCtx := context.WithoutCancel(ctx)
	if p.purgeOrphans(finishCtx, documentID) {
		return result, nil
	}

	if err := p.lifecycle.MarkProcessed(finishCtx, documentID, result.Chunks, result.Embedded); err != nil {
		return result, fmt.Errorf("mark processed: %w", err)
	}
	if result.Chunks > 0 && result.Embedded == 0 {
		logger.Warn("pipeline: document %s has no embedded chunks and cannot be retrieved", documentID)
	}
	logger.Info("Processed document %s: %d/%d chunks embedded", documentID, result.Embedded, result.Chunks)
	return result, nil
}

// runBatch embeds all chunks of a batch concurrently and stores each one as
// soon as its vector arrives. It returns how many non-empty vectors were stored.
func (p *EmbeddingPipeline) runBatch(ctx context.Context, batch []domain.VectorChunk) int {
	var (
		mu       sync.Mutex
		embedded int
		wg       sync.WaitGroup
	)

	for _, chunk := range batch {
		wg.Add(1)
		go func(chunk domain.VectorChunk) {
			defer wg.Done()

			if p.embedder != nil {
				vec, err := p.embedder.Embed(ctx, chunk.Content)
				if err != nil {
					logger.Warn("pipeline: embed chunk %d of %s: %v", chunk.Position, chunk.DocumentID, err)
					return
				}
				chunk.Embedding = vec
			}

			if _, err := p.vectors.Insert(ctx, chunk); err != nil {
				logger.Warn("pipeline: store chunk %d of %s: %v", chunk.Position, chunk.DocumentID, err)
				return
			}
			if domain.Rankable(chunk.Embedding) {
				mu.Lock()
				embedded++
				mu.Unlock()
			}
		}(chunk)
	}
	wg.Wait()
	return embedded
}

func (p *EmbeddingPipeline) fail(ctx context.Context, documentID string, cause error) error {
	finishCtx := context.WithoutCancel(ctx)
	if p.purgeOrphans(finishCtx, documentID) {
		return cause
	}
	if err := p.lifecycle.MarkFailed(finishCtx, documentID, cause); err != nil {
		logger.Error("pipeline: mark %s failed: %v", documentID, err)
	}
	return cause
}

// purgeOrphans removes chunks stored for a document that was deleted while
// the run was in flight. It reports whether the document is gone.
func (p *EmbeddingPipeline) purgeOrphans(ctx context.Context, documentID string) bool {
	exists, err := p.lifecycle.Exists(ctx, documentID)
	if err != nil {
		logger.Warn("pipeline: check document %s: %v", documentID, err)
		return false
	}
	if exists {
		return false
	}

	removed, err := p.vectors.DeleteByDocument(ctx, documentID)
	if err != nil {
		logger.Warn("pipeline: purge chunks of deleted document %s: %v", documentID, err)
		return true
	}
	if removed > 0 {
		logger.Info("Purged %d chunks of deleted document %s", removed, documentID)
	}
	return true
}

// Wait blocks until all background runs have finished.
func (p *EmbeddingPipeline) Wait() {
	p.wg.Wait()
}

// Close cancels background runs and waits for them to record their status.
func (p *EmbeddingPipeline) Close() {
	p.cancel()
	p.wg.Wait()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
