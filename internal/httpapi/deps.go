package httpapi

import (
	"jobmonitor/internal/config"
	"jobmonitor/internal/events"
	"jobmonitor/internal/poll"
)

type Deps struct {
	Poller *poll.Poller
	Hub    *events.Hub

	// Config returns the configuration the monitor is running with.
	Config func() config.Config
}
