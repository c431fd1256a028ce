package siphon

import (
	"github.com/rs/zerolog"
	"github.com/tubekit/tubes/diag"
)

// Option configures a Siphon at construction.
type Option func(*Siphon)

// WithLogger attaches a logger that receives one error event per tube
// failure caught during delivery. The default is zerolog.Nop().
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Siphon) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStats publishes this siphon's pending-queue depth and pause state into
// reg under keyPrefix+".pending_depth" / keyPrefix+".paused", so an operator
// can scrape back-pressure across a whole pipeline from one registry without
// touching the (single-threaded) pipeline state itself.
func WithStats(reg *diag.Registry, keyPrefix string) Option {
	return func(s *Siphon) {
		s.registry = reg
		s.statsKey = keyPrefix
	}
}
