package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/freshcart/delivery-service/internal/api/metrics"
	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes streamed samples to a fixed set of workers using
// consistent hashing on the delivery id, so samples of one delivery are
// ingested in arrival order while different deliveries proceed in parallel.
type Dispatcher struct {
	workers []chan ports.IngestInput
	service ports.TrackingService
	log     zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       conc.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.TrackingService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.IngestInput, numWorkers),
		service: service,
		log:     log,
		done:    make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.IngestInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled or
// Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Go(func() { d.runWorker(ctx, i, ch) })
	}
}

// Stop refuses further samples and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

// Enqueue hands a sample to the worker responsible for its delivery. It
// blocks while that worker's buffer is full and returns false once the
// dispatcher is stopped.
func (d *Dispatcher) Enqueue(in ports.IngestInput) bool {
	select {
	case <-d.done:
		return false
	default:
	}

	idx := d.shardIndex(in.Raw.DeliveryKey())
	select {
	case <-d.done:
		return false
	case d.workers[idx] <- in:
		metrics.IngestQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	}
}

// shardIndex maps a delivery id deterministically to a worker index.
func (d *Dispatcher) shardIndex(deliveryID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deliveryID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.IngestInput) {
	depth := metrics.IngestQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case in := <-ch:
			depth.Set(float64(len(ch)))
			if _, err := d.service.Ingest(ctx, in); err != nil {
				d.logFailure(err, in, id)
			}
		}
	}
}

// logFailure logs rejected samples at debug and anything else at error.
func (d *Dispatcher) logFailure(err error, in ports.IngestInput, workerID int) {
	ev := d.log.Error()
	if errors.Is(err, domain.ErrInvalidSample) || errors.Is(err, domain.ErrForbidden) {
		ev = d.log.Debug()
	}
	ev.Err(err).
		Str("delivery_id", in.Raw.DeliveryKey()).
		Int("worker_id", workerID).
		Msg("streamed sample dropped")
}
