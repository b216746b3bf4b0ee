// Package poll owns the resident monitor: one run at a time, its status, and
// the last result, shared by the scheduler and the HTTP API.
package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"jobmonitor/internal/events"
	"jobmonitor/internal/logger"
	"jobmonitor/internal/pipeline"
)

var ErrBusy = errors.New("a run is already in progress")

// RunFunc performs one complete run: fetch, score, persist, report, notify.
type RunFunc func(ctx context.Context, mode pipeline.Mode) (pipeline.RunResult, error)

type Status struct {
	Running   bool   `json:"running"`
	LastRunAt string `json:"last_run_at,omitempty"`
	LastOkAt  string `json:"last_ok_at,omitempty"`
	LastRunID string `json:"last_run_id,omitempty"`
	LastMode  string `json:"last_mode,omitempty"`
	LastNew   int    `json:"last_new"`
	LastError string `json:"last_error,omitempty"`
}

type Poller struct {
	run RunFunc
	hub *events.Hub

	mu     sync.Mutex // held for the duration of a run
	status atomic.Value
	last   atomic.Pointer[pipeline.RunResult]
}

func New(run RunFunc, hub *events.Hub) *Poller {
	p := &Poller{run: run, hub: hub}
	p.status.Store(Status{})
	return p
}

func (p *Poller) Status() Status { return p.status.Load().(Status) }

// Last returns the most recent result that completed, if any.
func (p *Poller) Last() (pipeline.RunResult, bool) {
	r := p.last.Load()
	if r == nil {
		return pipeline.RunResult{}, false
	}
	return *r, true
}

// RunOnce runs now unless a run is already going, in which case it returns
// ErrBusy straight away.
func (p *Poller) RunOnce(ctx context.Context, mode pipeline.Mode) (pipeline.RunResult, error) {
	if !p.mu.TryLock() {
		return pipeline.RunResult{}, ErrBusy
	}
	p.begin(mode)
	return p.runLocked(ctx, mode)
}

// Trigger claims the run slot synchronously, then runs in the background;
// the caller learns the outcome from Status or the event stream.
func (p *Poller) Trigger(ctx context.Context, mode pipeline.Mode) error {
	if !p.mu.TryLock() {
		return ErrBusy
	}
	p.begin(mode)
	go func() {
		_, _ = p.runLocked(context.WithoutCancel(ctx), mode)
	}()
	return nil
}

func (p *Poller) begin(mode pipeline.Mode) {
	st := p.Status()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	st.LastMode = mode.String()
	p.status.Store(st)
	p.hub.Emit("", events.TypeRunStarted, map[string]string{"mode": mode.String()})
}

// runLocked expects p.mu held and releases it.
func (p *Poller) runLocked(ctx context.Context, mode pipeline.Mode) (pipeline.RunResult, error) {
	defer p.mu.Unlock()

	res, err := p.run(ctx, mode)

	st := p.Status()
	st.Running = false
	st.LastRunID = res.RunID
	st.LastNew = len(res.NewKeys)
	if err != nil {
		st.LastError = err.Error()
		logger.C(ctx).Error().Err(err).Str("run_id", res.RunID).Msg("[poll] run failed")
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
	}
	p.status.Store(st)

	if res.RunID != "" {
		p.last.Store(&res)
		if mode == pipeline.ModeNew {
			for _, l := range res.Listings {
				p.hub.Emit(res.RunID, events.TypeListingNew, l)
			}
		}
	}
	p.hub.Emit(res.RunID, events.TypeRunFinished, st)
	return res, err
}
