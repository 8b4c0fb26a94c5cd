// Package alerts maintains the authoritative local copy of the operator's
// alert feed: wholesale refresh from the backend, a denormalized unread
// counter kept in lock-step with every mutation, optimistic delete with
// re-fetch reconciliation, and interval polling tied to the session.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mostrador/internal/model"
	"mostrador/internal/session"
	"mostrador/internal/sound"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrAlertaInvalida is a synchronous precondition failure: a nil alert id
// never produces a request.
var ErrAlertaInvalida = errors.New("alerta invalida")

// maxConsecutiveFailures suspends polling until the next session transition.
const maxConsecutiveFailures = 3

// Backend is the slice of the remote API the store needs. The production
// implementation lives in api.go; tests substitute an in-memory stub.
type Backend interface {
	List(ctx context.Context) ([]model.Alerta, error)
	MarkRead(ctx context.Context, id uuid.UUID, req model.MarcarLeidaRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// IdentityProvider yields the current operator. Mutations that write read
// receipts require it; its absence is a precondition failure.
type IdentityProvider interface {
	Current() (*session.Identity, error)
}

// Store is a single instance per authenticated session, mutated only through
// its own operations.
type Store struct {
	backend  Backend
	identity IdentityProvider
	sounder  sound.Sounder
	interval time.Duration

	mu         sync.Mutex
	items      []model.Alerta
	unread     int
	failures   int
	suspended  bool
	inFlight   bool
	pollGen    uint64
	cancelPoll context.CancelFunc
}

func NewStore(backend Backend, identity IdentityProvider, sounder sound.Sounder, interval time.Duration) *Store {
	if sounder == nil {
		sounder = sound.Nop{}
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Store{
		backend:  backend,
		identity: identity,
		sounder:  sounder,
		interval: interval,
	}
}

// ── Refresh ──────────────────────────────────────────────────────────────────

// Refresh fetches the full alert collection and replaces local state
// wholesale. At most one refresh runs at a time: a call that finds another in
// flight returns immediately, so an interval tick can never overlap a slow
// fetch. When the fresh collection holds unread CRITICO alerts the audible
// cue fires exactly once for the whole fetch.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil
	}
	s.inFlight = true
	s.mu.Unlock()

	items, err := s.backend.List(ctx)

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		s.failures++
		if s.failures >= maxConsecutiveFailures && !s.suspended {
			s.suspended = true
			log.Warn().Int("fallos", s.failures).Msg("alertas: polling suspendido hasta reiniciar sesion")
		}
		s.mu.Unlock()
		return err
	}
	s.failures = 0
	s.items = items
	s.unread = countUnread(items)
	criticalUnread := false
	for i := range items {
		if !items[i].Leida && items[i].Urgencia == model.UrgenciaCritico {
			criticalUnread = true
			break
		}
	}
	s.mu.Unlock()

	if criticalUnread {
		s.sounder.CriticalAlert()
	}
	return nil
}

func countUnread(items []model.Alerta) int {
	n := 0
	for i := range items {
		if !items[i].Leida {
			n++
		}
	}
	return n
}

// ── Read accessors ───────────────────────────────────────────────────────────

// Items returns a copy of the local feed.
func (s *Store) Items() []model.Alerta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Alerta(nil), s.items...)
}

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Suspended reports whether polling hit the consecutive-failure threshold.
func (s *Store) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// ── Mutations ────────────────────────────────────────────────────────────────

// MarkAsRead writes a read receipt for one alert. Precondition failures (nil
// id, missing identity) are raised before any request is sent.
func (s *Store) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrAlertaInvalida
	}
	ident, err := s.identity.Current()
	if err != nil {
		return err
	}

	if err := s.backend.MarkRead(ctx, id, model.MarcarLeidaRequest{UsuarioID: ident.UserID}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			if !s.items[i].Leida {
				s.items[i].Leida = true
				now := time.Now()
				s.items[i].LeidaEn = &now
				nombre := ident.Nombre
				s.items[i].LeidaPor = &nombre
				if s.unread > 0 {
					s.unread--
				}
			}
			break
		}
	}
	return nil
}

// MarkAllAsRead issues one receipt per unread alert concurrently (there is no
// bulk endpoint). Per-item outcomes are tracked: the succeeded subset flips
// locally even when others fail, and the failed subset is reported so the
// caller can retry it.
func (s *Store) MarkAllAsRead(ctx context.Context) error {
	ident, err := s.identity.Current()
	if err != nil {
		return err
	}

	s.mu.Lock()
	ids := make([]uuid.UUID, 0, s.unread)
	for i := range s.items {
		if !s.items[i].Leida {
			ids = append(ids, s.items[i].ID)
		}
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	var (
		wg        sync.WaitGroup
		resultsMu sync.Mutex
		succeeded = make(map[uuid.UUID]bool, len(ids))
		errs      []error
	)
	req := model.MarcarLeidaRequest{UsuarioID: ident.UserID}
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			err := s.backend.MarkRead(ctx, id, req)
			resultsMu.Lock()
			defer resultsMu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("alerta %s: %w", id, err))
				return
			}
			succeeded[id] = true
		}(id)
	}
	wg.Wait()

	now := time.Now()
	nombre := ident.Nombre
	s.mu.Lock()
	for i := range s.items {
		if !s.items[i].Leida && succeeded[s.items[i].ID] {
			s.items[i].Leida = true
			s.items[i].LeidaEn = &now
			s.items[i].LeidaPor = &nombre
		}
	}
	s.unread = countUnread(s.items)
	s.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("no se pudieron marcar %d de %d alertas: %w",
			len(errs), len(ids), errors.Join(errs...))
	}
	return nil
}

// Delete removes one alert: local-first, server-reconciled-on-failure. A
// failed delete triggers a full re-fetch instead of fine-grained rollback.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrAlertaInvalida
	}
	s.removeLocal(id)

	if err := s.backend.Delete(ctx, id); err != nil {
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			log.Warn().Err(refreshErr).Msg("alertas: re-sincronizacion tras borrado fallido")
		}
		return err
	}
	return nil
}

// DeleteMany removes a batch optimistically; any failed delete triggers one
// reconciliation re-fetch at the end.
func (s *Store) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		s.removeLocal(id)
	}

	var errs []error
	for _, id := range ids {
		if err := s.backend.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("alerta %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			log.Warn().Err(refreshErr).Msg("alertas: re-sincronizacion tras borrado fallido")
		}
		return errors.Join(errs...)
	}
	return nil
}

func (s *Store) removeLocal(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			if !s.items[i].Leida && s.unread > 0 {
				s.unread--
			}
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}
