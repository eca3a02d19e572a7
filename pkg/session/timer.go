package session

import (
	"time"

	"github.com/kraklabs/memvcs/pkg/log"
	"github.com/rs/zerolog"
)

// Timer drives the interval-elapsed commit trigger independently of
// new observations arriving, the way the teacher's scheduler drives
// its reconciliation ticker.
type Timer struct {
	recorder *Recorder
	interval time.Duration
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// NewTimer creates a Timer that checks the elapsed-time trigger every
// interval. A sensible interval is a fraction of
// Config.CommitIntervalSeconds so the trigger fires close to on time.
func NewTimer(recorder *Recorder, interval time.Duration) *Timer {
	return &Timer{
		recorder: recorder,
		interval: interval,
		logger:   log.WithComponent("session-timer"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (t *Timer) Start() {
	go t.run()
}

// Stop ends the background loop.
func (t *Timer) Stop() {
	close(t.stopCh)
}

func (t *Timer) run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if hash, err := t.recorder.CheckElapsed(); err != nil {
				t.logger.Error().Err(err).Msg("session elapsed-time check failed")
			} else if hash != "" {
				t.logger.Info().Str("commit_hash", hash).Msg("session auto-committed on elapsed time")
			}
		case <-t.stopCh:
			return
		}
	}
}
