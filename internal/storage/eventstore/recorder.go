package eventstore

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
)

// Recorder copies host receipts into a Store on a background goroutine.
type Recorder struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan *ReceiptRecord
	done   chan struct{}
}

// NewRecorder starts a recorder writing to store. queueSize 0 makes
// Record synchronous with the writer.
func NewRecorder(store Store, queueSize int, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{
		store:  store,
		logger: logger.Named("eventstore"),
		queue:  make(chan *ReceiptRecord, queueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Attach subscribes the recorder to every receipt h produces.
func (r *Recorder) Attach(h *host.Host) {
	h.Subscribe(func(rc *host.Receipt) {
		if err := r.Record(rc); err != nil {
			r.logger.Warn("receipt dropped", zap.Uint64("sequence", rc.Sequence), zap.Error(err))
		}
	})
}

// Record queues rc for storage.
func (r *Recorder) Record(rc *host.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}
	r.queue <- FromReceipt(rc)
	return nil
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		if err := r.store.SaveReceipt(context.Background(), rec); err != nil {
			r.logger.Error("failed to store receipt",
				zap.String("id", rec.ID.String()),
				zap.Uint64("sequence", rec.Sequence),
				zap.Error(err))
			continue
		}
		r.logger.Debug("receipt stored",
			zap.Uint64("sequence", rec.Sequence),
			zap.Int("events", len(rec.Events)))
	}
}

// Close stops accepting receipts and waits until queued ones are written
// or ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
