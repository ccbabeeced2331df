// Package worker runs the background replenishment trigger.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go-vetpos/internal/events"
	"go-vetpos/internal/service"
)

// Replenisher runs RunAutoReplenish on a schedule and whenever a sale leaves
// products under the reorder threshold. Kicks that arrive while a run is in
// flight coalesce into one follow-up run. Failures are logged; they never
// reach the sale that caused them.
type Replenisher struct {
	svc    service.ReplenishService
	every  time.Duration
	onSale bool
	log    *slog.Logger

	kick   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReplenisher(svc service.ReplenishService, every time.Duration, onSale bool, log *slog.Logger) *Replenisher {
	return &Replenisher{
		svc:    svc,
		every:  every,
		onSale: onSale,
		log:    log,
		kick:   make(chan struct{}, 1),
	}
}

// Publish lets the replenisher subscribe to the event stream.
func (r *Replenisher) Publish(_ context.Context, e events.Event) error {
	if r.onSale && e.Type == events.SaleRecorded && e.LowStockCount > 0 {
		r.Kick()
	}
	return nil
}

// Kick requests a run without blocking.
func (r *Replenisher) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Start begins the background loop.
func (r *Replenisher) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()
}

// Stop cancels the loop and waits for an in-flight run to return.
func (r *Replenisher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Replenisher) loop(ctx context.Context) {
	var tick <-chan time.Time
	if r.every > 0 {
		t := time.NewTicker(r.every)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			r.runOnce(ctx, "schedule")
		case <-r.kick:
			r.runOnce(ctx, "sale")
		}
	}
}

func (r *Replenisher) runOnce(ctx context.Context, trigger string) {
	res, err := r.svc.RunAutoReplenish(ctx, service.System, nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.log.Error("auto replenish failed", "trigger", trigger, "err", err)
		return
	}
	if res.Created {
		r.log.Info("auto replenish created order", "trigger", trigger, "purchase_id", *res.PurchaseID, "lines", len(res.Lines))
		return
	}
	r.log.Debug("auto replenish no-op", "trigger", trigger, "reason", res.Reason)
}
