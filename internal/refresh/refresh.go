// Package refresh owns the background fetch loop: it pulls listings and
// usage aggregates from the admin API on an interval and installs them into
// the state store as immutable snapshots.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nghyane/mux-console/internal/adminapi"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/nghyane/mux-console/internal/state"
)

const (
	defaultInterval = 30 * time.Second
	cycleTimeout    = 30 * time.Second

	// keyUsageLimit caps per-key usage fetches per cycle so large key
	// fleets don't fan out into hundreds of requests.
	keyUsageLimit       = 25
	keyUsageConcurrency = 4
)

// Broadcaster is notified after a cycle installs, so live clients can
// re-render.
type Broadcaster interface {
	UsageUpdated(seq uint64)
}

// Refresher periodically synchronizes the state store with the admin API.
// Start it once; Stop waits for the in-flight cycle to finish.
type Refresher struct {
	store       *state.Store
	broadcaster Broadcaster
	tracer      trace.Tracer

	// mu guards client and interval, which config reloads may swap while
	// the loop is running.
	mu       sync.RWMutex
	client   *adminapi.Client
	interval time.Duration

	ticker      *time.Ticker
	refreshChan chan struct{}
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New creates a refresher polling at interval.
func New(client *adminapi.Client, store *state.Store, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Refresher{
		client:      client,
		store:       store,
		interval:    interval,
		tracer:      otel.Tracer("mux-console/refresh"),
		refreshChan: make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
	}
}

// SetBroadcaster wires the live-update hub. Call before Start.
func (r *Refresher) SetBroadcaster(b Broadcaster) {
	r.broadcaster = b
}

// SetClient swaps the admin client, e.g. after a config reload changed the
// gateway endpoint. The next cycle uses the new client.
func (r *Refresher) SetClient(client *adminapi.Client) {
	if r == nil || client == nil {
		return
	}
	r.mu.Lock()
	r.client = client
	r.mu.Unlock()
}

// SetInterval changes the poll cadence of a running refresher.
func (r *Refresher) SetInterval(d time.Duration) {
	if r == nil || d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d == r.interval {
		return
	}
	r.interval = d
	if r.ticker != nil {
		r.ticker.Reset(d)
	}
}

func (r *Refresher) currentClient() *adminapi.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// Start begins the background loop with an immediate first cycle.
func (r *Refresher) Start() {
	r.mu.Lock()
	r.ticker = time.NewTicker(r.interval)
	r.mu.Unlock()
	r.wg.Add(1)
	go r.loop()
}

// Stop shuts the loop down and waits for an in-flight cycle to finish.
func (r *Refresher) Stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.mu.Lock()
		if r.ticker != nil {
			r.ticker.Stop()
		}
		r.mu.Unlock()
		r.wg.Wait()
	})
}

// TriggerRefresh schedules an immediate cycle. Non-blocking; triggers
// arriving while one is already pending coalesce.
func (r *Refresher) TriggerRefresh() {
	if r == nil {
		return
	}
	select {
	case r.refreshChan <- struct{}{}:
	default:
	}
}

func (r *Refresher) loop() {
	defer r.wg.Done()
	r.runCycle()
	for {
		select {
		case <-r.stopChan:
			return
		case <-r.ticker.C:
			r.runCycle()
		case <-r.refreshChan:
			r.runCycle()
		}
	}
}

func (r *Refresher) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()
	if err := r.RefreshNow(ctx); err != nil {
		log.Warnf("Refresh cycle failed: %v", err)
	}
}

// RefreshNow runs one fetch cycle: accounts, keys and the usage aggregate
// in parallel, then per-key usage for the first keys. Partial failures
// degrade to notices and empty sections; the cycle errors only when
// nothing could be fetched. A cycle that resolves after a newer one has
// installed is discarded.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	seq := r.store.NextSeq()
	cycleID := uuid.NewString()
	ctx, span := r.tracer.Start(ctx, "refresh.cycle", trace.WithAttributes(
		attribute.String("cycle.id", cycleID),
		attribute.Int64("cycle.seq", int64(seq)),
	))
	defer span.End()

	windowMs := r.store.Snapshot().WindowMs
	client := r.currentClient()

	var (
		accounts    []adminapi.Account
		keys        []adminapi.Key
		usage       *adminapi.UsagePayload
		accountsErr error
		keysErr     error
		usageErr    error
	)

	// Each fetch tolerates the others failing, so the group only carries
	// the shared context, never an error.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, accountsErr = client.Accounts(gctx)
		return nil
	})
	g.Go(func() error {
		keys, keysErr = client.Keys(gctx)
		return nil
	})
	g.Go(func() error {
		usage, usageErr = client.Usage(gctx, windowMs)
		return nil
	})
	_ = g.Wait()

	if accountsErr != nil && keysErr != nil && usageErr != nil {
		r.store.AddNotice(state.NoticeError, "refresh failed: "+usageErr.Error())
		return fmt.Errorf("refresh: all fetches failed: %w", usageErr)
	}
	r.noticePartialFailures(accountsErr, keysErr, usageErr)

	keyUsage := r.fetchKeyUsage(ctx, keys, windowMs)

	installed := r.store.Install(seq, func(next *state.Snapshot) {
		next.Accounts = nil
		next.Keys = nil
		next.Usage = nil
		next.KeyUsage = nil
		if accountsErr == nil {
			next.Accounts = accounts
		}
		if keysErr == nil {
			next.Keys = keys
		}
		if usageErr == nil {
			next.Usage = usage
		}
		if len(keyUsage) > 0 {
			next.KeyUsage = keyUsage
		}
	})
	if !installed {
		log.Debugf("Refresh cycle %s superseded before install", cycleID)
		return nil
	}

	if r.broadcaster != nil {
		r.broadcaster.UsageUpdated(seq)
	}
	log.Debugf("Refresh cycle %s installed: seq=%d accounts=%d keys=%d", cycleID, seq, len(accounts), len(keys))
	return nil
}

func (r *Refresher) noticePartialFailures(accountsErr, keysErr, usageErr error) {
	if usageErr != nil {
		if d, ok := adminapi.RetryAfterOf(usageErr); ok && d > 0 {
			r.store.AddNotice(state.NoticeWarn, fmt.Sprintf("usage fetch rate limited, retry in %s", d.Round(time.Second)))
		} else {
			r.store.AddNotice(state.NoticeWarn, "usage unavailable: "+usageErr.Error())
		}
	}
	if accountsErr != nil {
		r.store.AddNotice(state.NoticeWarn, "account listing unavailable: "+accountsErr.Error())
	}
	if keysErr != nil {
		r.store.AddNotice(state.NoticeWarn, "key listing unavailable: "+keysErr.Error())
	}
}

// fetchKeyUsage pulls per-key aggregates with bounded concurrency. Failures
// are logged, not surfaced; the key row simply renders without usage.
func (r *Refresher) fetchKeyUsage(ctx context.Context, keys []adminapi.Key, windowMs int64) map[string]*adminapi.UsagePayload {
	if len(keys) == 0 {
		return nil
	}
	if len(keys) > keyUsageLimit {
		keys = keys[:keyUsageLimit]
	}

	client := r.currentClient()
	var mu sync.Mutex
	keyUsage := make(map[string]*adminapi.UsagePayload, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(keyUsageConcurrency)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			p, err := client.KeyUsage(gctx, k.ID, windowMs)
			if err != nil {
				log.Debugf("Key usage fetch failed for %s: %v", k.ID, err)
				return nil
			}
			mu.Lock()
			keyUsage[k.ID] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return keyUsage
}
