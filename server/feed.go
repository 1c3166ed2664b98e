package server

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/logging"
)

// Publisher accepts events for broadcast. The orchestrator façade satisfies
// it.
type Publisher interface {
	Publish(event core.StreamingEvent)
}

// FeedOptions configures an OrderFeed.
type FeedOptions struct {
	// Interval is the tick rate. Defaults to 5s.
	Interval time.Duration

	// SKUs is the item pool the feed draws from.
	SKUs []string

	// Seed fixes the random source for reproducible runs. Zero seeds from
	// the clock.
	Seed int64

	// Logger receives feed diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// OrderFeed emits a synthetic stream of order activity: new orders, quantity
// changes and demand metrics. It exists to keep dashboards and new
// subscribers supplied with live data without a real order system attached.
type OrderFeed struct {
	pub      Publisher
	interval time.Duration
	skus     []string
	rng      *rand.Rand
	logger   logging.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewOrderFeed constructs a feed publishing into the given broadcaster.
func NewOrderFeed(pub Publisher, optFns ...func(o *FeedOptions)) *OrderFeed {
	opts := FeedOptions{
		Interval: 5 * time.Second,
		SKUs:     []string{"SKU-1001", "SKU-1002", "SKU-1003", "SKU-2001", "SKU-3001"},
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &OrderFeed{
		pub:      pub,
		interval: opts.Interval,
		skus:     opts.SKUs,
		rng:      rand.New(rand.NewSource(seed)),
		logger:   opts.Logger,
		done:     make(chan struct{}),
	}
}

// Start launches the feed goroutine. It runs until Stop or context
// cancellation.
func (f *OrderFeed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	go f.run(ctx)
}

// Stop halts the feed and waits for the goroutine to exit. Stop without a
// prior Start is a no-op.
func (f *OrderFeed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}

func (f *OrderFeed) run(ctx context.Context) {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("order feed stopped")
			return
		case <-ticker.C:
			seq++
			f.pub.Publish(f.nextEvent(seq))
		}
	}
}

// nextEvent rotates through the event variants so observers see a mix of
// order arrivals, field updates and metric readings.
func (f *OrderFeed) nextEvent(seq int) core.StreamingEvent {
	sku := f.skus[f.rng.Intn(len(f.skus))]

	switch seq % 3 {
	case 0:
		return core.NewStreamingEvent(core.EventMetricUpdate, sku, "order-feed", map[string]any{
			"metric": "daily_demand",
			"value":  10 + f.rng.Intn(90),
		})
	case 1:
		return core.NewStreamingEvent(core.EventItemAdded, fmt.Sprintf("order-%d", seq), "order-feed", map[string]any{
			"sku":      sku,
			"quantity": 1 + f.rng.Intn(20),
		})
	default:
		return core.NewStreamingEvent(core.EventFieldChanged, sku, "order-feed", map[string]any{
			"field": "quantity",
			"delta": f.rng.Intn(10) - 5,
		})
	}
}
