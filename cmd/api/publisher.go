package main

import (
	"context"
	"sync/atomic"

	"go-vetpos/internal/events"
)

// lateFanout is handed to the services before every subscriber exists.
// Events published before set are dropped.
type lateFanout struct {
	v atomic.Value
}

func (l *lateFanout) set(f events.Fanout) {
	l.v.Store(f)
}

func (l *lateFanout) Publish(ctx context.Context, e events.Event) error {
	f, _ := l.v.Load().(events.Fanout)
	return f.Publish(ctx, e)
}
