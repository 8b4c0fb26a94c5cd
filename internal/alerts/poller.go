package alerts

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartPolling launches the refresh loop. It is invoked on every login; the
// call resets the failure counter, so a suspension clears only through a
// session transition, never by the store itself. Calling it while a loop is
// already running is a no-op.
func (s *Store) StartPolling(ctx context.Context) {
	s.mu.Lock()
	if s.cancelPoll != nil {
		s.mu.Unlock()
		return
	}
	s.failures = 0
	s.suspended = false
	s.pollGen++
	gen := s.pollGen
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancelPoll = cancel
	interval := s.interval
	s.mu.Unlock()

	go s.pollLoop(pollCtx, gen, interval)
}

// StopPolling stops the loop. Invoked on logout.
func (s *Store) StopPolling() {
	s.mu.Lock()
	cancel := s.cancelPoll
	s.cancelPoll = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// clearPoll releases the poll handle, but only if it still belongs to this
// loop generation — a logout/login pair may already have replaced it.
func (s *Store) clearPoll(gen uint64) {
	s.mu.Lock()
	var cancel context.CancelFunc
	if s.pollGen == gen {
		cancel = s.cancelPoll
		s.cancelPoll = nil
	}
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Store) pollLoop(ctx context.Context, gen uint64, interval time.Duration) {
	defer s.clearPoll(gen)

	log.Info().Dur("intervalo", interval).Msg("alertas: polling iniciado")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First fetch right away — the operator should not wait a full interval
	// after logging in.
	if err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("alertas: refresco fallido")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("alertas: polling detenido")
			return
		case <-ticker.C:
			if s.Suspended() {
				log.Warn().Msg("alertas: polling suspendido, se requiere nueva sesion")
				return
			}
			if err := s.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("alertas: refresco fallido")
			}
		}
	}
}
