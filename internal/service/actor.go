package service

import (
	"time"

	"go-vetpos/internal/events"
	"go-vetpos/internal/model"
)

// Actor is the authenticated principal handed in by the session layer. The
// services trust it as given.
type Actor struct {
	ID   string
	Name string
	Role model.Role
}

// System is the actor used by background triggers.
var System = Actor{ID: "system", Name: "Auto Replenish"}

func (a Actor) event() events.Actor {
	return events.Actor{ID: a.ID, Name: a.Name}
}

// Clock returns the current time. Services store it in UTC.
type Clock func() time.Time

func utcNow(c Clock) time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
