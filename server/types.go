// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"time"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
)

// Config holds all server-side parameters handed to the event loop at
// construction time.
type Config struct {
	ListenAddr       string          // TCP bind address, e.g. "127.0.0.1:8888"
	Mode             api.TriggerMode // readiness policy for every registration
	MaxDescriptors   int             // registry ceiling, listener included
	MaxMessage       int             // longest line accepted, newline excluded
	ReadChunk        int             // bytes per read(2)
	MaxPending       int             // outbound queue bound per session
	PollBatch        int             // events fetched per poll call
	PollTimeout      time.Duration   // bounded wait per poll call
	StatsInterval    time.Duration   // periodic stats log, 0 disables
	AnnouncePresence bool            // joined/left notices to other clients
	Messages         control.Messages
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	cfg, _ := ConfigFrom(control.Defaults())
	return cfg
}

// ConfigFrom converts a validated file configuration.
func ConfigFrom(fc *control.Config) (*Config, error) {
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	mode, err := fc.Mode()
	if err != nil {
		return nil, err
	}
	return &Config{
		ListenAddr:       fc.Listen,
		Mode:             mode,
		MaxDescriptors:   fc.MaxDescriptors,
		MaxMessage:       fc.MaxMessage,
		ReadChunk:        fc.ReadChunk,
		MaxPending:       fc.MaxPending,
		PollBatch:        fc.PollBatch,
		PollTimeout:      fc.PollTimeout,
		StatsInterval:    fc.StatsInterval,
		AnnouncePresence: fc.AnnouncePresence,
		Messages:         fc.Messages,
	}, nil
}
