// Package dashboard ties the login session to the lifetime of a refresh loop.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sensor-dashboard/internal/auth"
	"sensor-dashboard/internal/models"
	"sensor-dashboard/internal/refresh"
)

// LoopFactory builds a fresh, unstarted loop.
type LoopFactory func() *refresh.Loop

// Controller starts a new refresh loop on every login and stops it on
// logout. Loops are never restarted; each session gets its own.
type Controller struct {
	session *auth.Session
	newLoop LoopFactory
	base    context.Context
	log     *slog.Logger

	mu   sync.Mutex
	loop *refresh.Loop
}

// NewController binds loops to base; cancelling it stops any running loop.
func NewController(base context.Context, session *auth.Session, factory LoopFactory, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		session: session,
		newLoop: factory,
		base:    base,
		log:     logger.With(slog.String("component", "dashboard")),
	}
}

// Login checks the credentials and starts a loop if none is running.
// A failed start only undoes the login made by this call.
func (c *Controller) Login(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasAuthenticated := c.session.Authenticated()
	if err := c.session.Login(username, password); err != nil {
		c.log.Warn("login rejected", slog.String("username", username))
		return err
	}
	if c.loop != nil && c.loop.Running() {
		return nil
	}

	loop := c.newLoop()
	if err := loop.Start(c.base); err != nil {
		if !wasAuthenticated {
			c.session.Logout()
		}
		return err
	}
	c.loop = loop
	c.log.Info("session started", slog.String("username", username))
	return nil
}

// Logout stops the current loop and discards its state.
func (c *Controller) Logout() {
	c.mu.Lock()
	c.session.Logout()
	loop := c.loop
	c.loop = nil
	c.mu.Unlock()

	if loop != nil {
		loop.Stop()
		c.log.Info("session ended")
	}
}

func (c *Controller) Authenticated() bool {
	return c.session.Authenticated()
}

func (c *Controller) current() *refresh.Loop {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loop
}

// Snapshot returns the live snapshot, or an empty one when no loop runs.
func (c *Controller) Snapshot() *models.Snapshot {
	if l := c.current(); l != nil {
		return l.Snapshot()
	}
	return models.EmptySnapshot()
}

// Refresh forces an immediate fetch on the running loop.
func (c *Controller) Refresh() error {
	l := c.current()
	if l == nil {
		return refresh.ErrNotRunning
	}
	return l.Refresh()
}

type ChannelStatus struct {
	Channel models.Channel `json:"channel"`
	Current float64        `json:"current"`
	Unit    string         `json:"unit"`
	Count   int            `json:"count"`
}

type Status struct {
	Authenticated bool            `json:"authenticated"`
	Running       bool            `json:"running"`
	Loading       bool            `json:"loading"`
	State         refresh.State   `json:"state"`
	Connected     bool            `json:"connected"`
	LastUpdate    *time.Time      `json:"last_update,omitempty"`
	Error         string          `json:"error,omitempty"`
	Channels      []ChannelStatus `json:"channels"`
}

// Status summarizes the session, the loop and the latest value per channel.
func (c *Controller) Status() Status {
	st := Status{Authenticated: c.session.Authenticated()}

	snap := models.EmptySnapshot()
	if l := c.current(); l != nil {
		snap = l.Snapshot()
		st.Running = l.Running()
		st.Loading = l.Loading()
		st.State = l.State()
	}

	st.Connected = snap.Connected
	st.Error = snap.Error
	if !snap.LastUpdate.IsZero() {
		t := snap.LastUpdate
		st.LastUpdate = &t
	}
	st.Channels = make([]ChannelStatus, 0, len(snap.Channels))
	for _, v := range snap.Channels {
		st.Channels = append(st.Channels, ChannelStatus{
			Channel: v.Channel,
			Current: v.Window.Latest(),
			Unit:    v.Channel.Info().Unit,
			Count:   len(v.Window),
		})
	}
	return st
}

// Close stops any running loop without touching the session.
func (c *Controller) Close() {
	c.mu.Lock()
	loop := c.loop
	c.loop = nil
	c.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}
}
