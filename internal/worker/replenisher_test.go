package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go-vetpos/internal/events"
	"go-vetpos/internal/service"
	"go-vetpos/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeReplenish struct {
	calls atomic.Int32
	err   error
}

func (f *fakeReplenish) RunAutoReplenish(context.Context, service.Actor, *uuid.UUID) (*service.ReplenishResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	id := uuid.New()
	return &service.ReplenishResult{Created: true, PurchaseID: &id}, nil
}

func TestPublishKicksOnLowStockSale(t *testing.T) {
	svc := &fakeReplenish{}
	r := NewReplenisher(svc, 0, true, logger.Discard())
	r.Start(context.Background())
	defer r.Stop()

	_ = r.Publish(context.Background(), events.Event{Type: events.SaleRecorded, LowStockCount: 0})
	_ = r.Publish(context.Background(), events.Event{Type: events.ProductUpdated, LowStockCount: 3})
	_ = r.Publish(context.Background(), events.Event{Type: events.SaleRecorded, LowStockCount: 2})

	assert.Eventually(t, func() bool { return svc.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestPublishIgnoredWhenOnSaleDisabled(t *testing.T) {
	svc := &fakeReplenish{}
	r := NewReplenisher(svc, 0, false, logger.Discard())
	r.Start(context.Background())

	_ = r.Publish(context.Background(), events.Event{Type: events.SaleRecorded, LowStockCount: 5})
	time.Sleep(20 * time.Millisecond)
	r.Stop()

	assert.Zero(t, svc.calls.Load())
}

func TestKicksCoalesce(t *testing.T) {
	r := NewReplenisher(&fakeReplenish{}, 0, true, logger.Discard())
	for i := 0; i < 10; i++ {
		r.Kick()
	}
	assert.Len(t, r.kick, 1)
}

func TestScheduledRunsSurviveFailures(t *testing.T) {
	svc := &fakeReplenish{err: errors.New("db down")}
	r := NewReplenisher(svc, 5*time.Millisecond, false, logger.Discard())
	r.Start(context.Background())

	assert.Eventually(t, func() bool { return svc.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	r.Stop()
}
