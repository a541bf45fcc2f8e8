package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/prisonforge/server/internal/core/system"
)

// Flusher writes buffered profile deltas.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
	Pending() int
}

// FlushGauge is told about every flush attempt.
type FlushGauge interface {
	LedgerFlushed(err error, pending int)
}

// PersistenceSystem flushes the profile ledger every N ticks. Phase 5
// (Persist). A failed flush keeps its deltas for the next attempt.
type PersistenceSystem struct {
	ledger    Flusher
	gauge     FlushGauge
	log       *zap.Logger
	tickCount int
	interval  int // flush every N ticks
	timeout   time.Duration
}

func NewPersistenceSystem(ledger Flusher, gauge FlushGauge, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		ledger:   ledger,
		gauge:    gauge,
		log:      log,
		interval: intervalTicks,
		timeout:  5 * time.Second,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.flush()
}

// FlushNow writes everything immediately. Called on graceful shutdown.
func (s *PersistenceSystem) FlushNow() error {
	return s.flush()
}

func (s *PersistenceSystem) flush() error {
	if s.ledger.Pending() == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.ledger.Flush(ctx)
	if s.gauge != nil {
		s.gauge.LedgerFlushed(err, s.ledger.Pending())
	}
	if err != nil {
		s.log.Error("ledger flush failed", zap.Int("pending", s.ledger.Pending()), zap.Error(err))
		return err
	}
	s.log.Debug("ledger flushed", zap.Int("rows", n))
	return nil
}
