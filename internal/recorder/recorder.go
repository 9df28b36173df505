package recorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"streamgate/internal/config"
	"streamgate/internal/hub"
	"streamgate/internal/model"
)

// Metrics counts recorder activity.
type Metrics struct {
	Inserts int64
	Flushes int64
	Errors  int64
	Dropped int64
}

// Recorder consumes canonical events and writes them to the events table in
// batches.
type Recorder struct {
	cfg    config.RecorderConfig
	logger *slog.Logger

	// Input from the hub, via Sink
	input *GrowableBuffer[model.Event]

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// eventRow is one row of the events table.
type eventRow struct {
	Kind       string
	Source     string
	Symbol     string
	EventTS    int64 // µs since epoch
	ReceivedAt int64 // µs since epoch
	Payload    []byte
}

// New creates a recorder.
func New(cfg config.RecorderConfig, db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  NewGrowableBuffer[model.Event](cfg.BufferSize),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Sink returns the hub sink feeding this recorder. Delivery only enqueues;
// database latency never reaches the broadcaster.
func (r *Recorder) Sink() hub.Sink {
	return hub.SinkFunc(func(ctx context.Context, ev model.Event) error {
		if !r.input.Send(ev) {
			return hub.ErrSinkClosed
		}
		return nil
	})
}

// Start begins consuming events and writing to the database.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.consumeLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the recorder.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping recorder")

	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}
	r.input.Close()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("recorder stop timed out")
	}

	// Final flush
	r.flush()

	return nil
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

// consumeLoop reads from the input buffer and accumulates batches.
func (r *Recorder) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
			ev, ok := r.input.TryReceive()
			if !ok {
				select {
				case <-r.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			r.handleEvent(ev)
		}
	}
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush()
		}
	}
}

// handleEvent transforms an event and adds it to the batch.
func (r *Recorder) handleEvent(ev model.Event) {
	row, err := transform(ev)
	if err != nil {
		r.batchMu.Lock()
		r.metrics.Dropped++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush()
	}
}

// transform converts a canonical event to an events-table row.
func transform(ev model.Event) (eventRow, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return eventRow{}, err
	}
	return eventRow{
		Kind:       string(ev.Kind),
		Source:     ev.Source,
		Symbol:     ev.Symbol,
		EventTS:    ev.Timestamp.UnixMicro(),
		ReceivedAt: time.Now().UnixMicro(),
		Payload:    payload,
	}, nil
}

// flush writes the current batch to the database.
func (r *Recorder) flush() {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of the current batch
	batch := r.batch
	r.batch = make([]eventRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	if err := r.batchInsert(batch); err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch))
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed events",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (r *Recorder) batchInsert(rows []eventRow) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO events (kind, source, symbol, event_ts, received_at, payload)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (kind, source, symbol, event_ts) DO NOTHING
		`, row.Kind, row.Source, row.Symbol, row.EventTS, row.ReceivedAt, row.Payload)
	}

	// Own deadline, not r.ctx: the final flush runs after Stop cancels it.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}
