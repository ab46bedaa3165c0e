// Package async provides a write-behind wrapper so UI-driven writes (the
// last-chosen account is persisted on every explicit switch) never block on
// storage latency.
package async

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/logging"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
	"go.uber.org/zap"
)

// Writer queues Set operations onto a bounded channel drained by a single
// worker. A single worker keeps writes for the same key in issue order.
type Writer struct {
	layer   store.Store
	queue   chan writeOp
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *logging.Logger
	maxWait time.Duration

	totalWrites   int64
	droppedWrites int64
	failedWrites  int64
}

type writeOp struct {
	key   string
	value []byte
	ttl   time.Duration
}

// Config configures the async writer.
type Config struct {
	// QueueSize is the bounded queue size (default: 64)
	QueueSize int

	// MaxWait is the longest Write blocks when the queue is full before
	// dropping the operation (default: 10ms)
	MaxWait time.Duration
}

// NewWriter creates an async writer and starts its worker.
func NewWriter(layer store.Store, config Config) *Writer {
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 10 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Writer{
		layer:   layer,
		queue:   make(chan writeOp, config.QueueSize),
		cancel:  cancel,
		logger:  logging.L().Named("async-writer").Named(layer.Name()),
		maxWait: config.MaxWait,
	}

	w.wg.Add(1)
	go w.run(ctx)

	return w
}

// Write enqueues a Set. If the queue stays full past MaxWait the write is
// dropped and counted; durable state self-heals on the next write for the
// same key.
func (w *Writer) Write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	atomic.AddInt64(&w.totalWrites, 1)

	op := writeOp{key: key, value: value, ttl: ttl}

	select {
	case w.queue <- op:
		return nil
	default:
	}

	select {
	case w.queue <- op:
		return nil
	case <-ctx.Done():
		atomic.AddInt64(&w.droppedWrites, 1)
		return ctx.Err()
	case <-time.After(w.maxWait):
		atomic.AddInt64(&w.droppedWrites, 1)
		w.logger.Warn("write dropped, queue full", zap.String("key", key))
		return nil
	}
}

// Flush blocks until the queue has drained.
func (w *Writer) Flush() {
	for len(w.queue) > 0 {
		time.Sleep(time.Millisecond)
	}
}

// Close stops the worker after draining queued writes.
func (w *Writer) Close() error {
	close(w.queue)
	w.wg.Wait()
	w.cancel()
	return nil
}

// Dropped returns the number of dropped writes.
func (w *Writer) Dropped() int64 {
	return atomic.LoadInt64(&w.droppedWrites)
}

// Failed returns the number of writes the backing store rejected.
func (w *Writer) Failed() int64 {
	return atomic.LoadInt64(&w.failedWrites)
}

func (w *Writer) run(ctx context.Context) {
	defer w.wg.Done()

	for op := range w.queue {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := w.layer.Set(writeCtx, op.key, op.value, op.ttl); err != nil {
			atomic.AddInt64(&w.failedWrites, 1)
			w.logger.Error("write failed",
				zap.String("key", op.key),
				zap.Error(err),
			)
		}
		cancel()
	}
}
