package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mostrador/internal/model"
	"mostrador/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ────────────────────────────────────────────────────────────────────

// stubBackend is an in-memory alert backend. failMarkRead lists ids whose
// receipt must fail; listErr (when set) makes every List fail.
type stubBackend struct {
	mu           sync.Mutex
	alertas      []model.Alerta
	listErr      error
	failMarkRead map[uuid.UUID]error
	deleteErr    error
	listCalls    int
	markedRead   []uuid.UUID
	deleted      []uuid.UUID
}

func (b *stubBackend) List(_ context.Context) ([]model.Alerta, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]model.Alerta(nil), b.alertas...), nil
}

func (b *stubBackend) MarkRead(_ context.Context, id uuid.UUID, _ model.MarcarLeidaRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failMarkRead[id]; err != nil {
		return err
	}
	b.markedRead = append(b.markedRead, id)
	return nil
}

func (b *stubBackend) Delete(_ context.Context, id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, id)
	for i := range b.alertas {
		if b.alertas[i].ID == id {
			b.alertas = append(b.alertas[:i], b.alertas[i+1:]...)
			break
		}
	}
	return nil
}

type stubIdentity struct {
	id  *session.Identity
	err error
}

func (s *stubIdentity) Current() (*session.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.id, nil
}

func cajera() *stubIdentity {
	return &stubIdentity{id: &session.Identity{
		UserID:   uuid.New(),
		Username: "cajera",
		Nombre:   "Maria Quispe",
		Rol:      "vendedor",
	}}
}

// spySounder counts audible cues.
type spySounder struct {
	mu    sync.Mutex
	calls int
}

func (s *spySounder) CriticalAlert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
}

func (s *spySounder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func alerta(urgencia model.Urgencia, leida bool) model.Alerta {
	return model.Alerta{
		ID:        uuid.New(),
		Tipo:      model.AlertaStockBajo,
		Urgencia:  urgencia,
		Mensaje:   "stock bajo",
		Leida:     leida,
		CreatedAt: time.Now(),
	}
}

// ── Refresh ──────────────────────────────────────────────────────────────────

func TestRefreshReemplazaYCuentaNoLeidas(t *testing.T) {
	backend := &stubBackend{alertas: []model.Alerta{
		alerta(model.UrgenciaAlto, false),
		alerta(model.UrgenciaMedio, true),
		alerta(model.UrgenciaBajo, false),
	}}
	s := NewStore(backend, cajera(), nil, time.Minute)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, s.Items(), 3)
	assert.Equal(t, 2, s.UnreadCount())
}

func TestRefreshSonidoCriticoUnaVezPorFetch(t *testing.T) {
	snd := &spySounder{}
	backend := &stubBackend{alertas: []model.Alerta{
		alerta(model.UrgenciaCritico, false),
		alerta(model.UrgenciaCritico, false),
		alerta(model.UrgenciaAlto, false),
	}}
	s := NewStore(backend, cajera(), snd, time.Minute)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 1, snd.count(), "una sola señal por refresco, no por alerta")

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 2, snd.count())
}

func TestRefreshSinCriticasNoSuena(t *testing.T) {
	snd := &spySounder{}
	backend := &stubBackend{alertas: []model.Alerta{
		alerta(model.UrgenciaCritico, true), // critica pero ya leida
		alerta(model.UrgenciaAlto, false),
	}}
	s := NewStore(backend, cajera(), snd, time.Minute)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 0, snd.count())
}

// ── MarkAsRead ───────────────────────────────────────────────────────────────

func TestMarkAsReadPrecondiciones(t *testing.T) {
	backend := &stubBackend{}
	s := NewStore(backend, &stubIdentity{err: session.ErrNoAutenticado}, nil, time.Minute)

	assert.ErrorIs(t, s.MarkAsRead(context.Background(), uuid.Nil), ErrAlertaInvalida)
	assert.ErrorIs(t, s.MarkAsRead(context.Background(), uuid.New()), session.ErrNoAutenticado)
	assert.Empty(t, backend.markedRead, "ninguna precondicion fallida genera requests")
}

func TestMarkAsReadActualizaContador(t *testing.T) {
	a := alerta(model.UrgenciaAlto, false)
	backend := &stubBackend{alertas: []model.Alerta{a, alerta(model.UrgenciaBajo, false)}}
	s := NewStore(backend, cajera(), nil, time.Minute)
	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, 2, s.UnreadCount())

	require.NoError(t, s.MarkAsRead(context.Background(), a.ID))
	assert.Equal(t, 1, s.UnreadCount())

	items := s.Items()
	require.True(t, items[0].Leida)
	require.NotNil(t, items[0].LeidaPor)
	assert.Equal(t, "Maria Quispe", *items[0].LeidaPor)

	// Idempotente sobre una alerta ya leida: el contador no baja de nuevo.
	require.NoError(t, s.MarkAsRead(context.Background(), a.ID))
	assert.Equal(t, 1, s.UnreadCount())
}

// ── MarkAllAsRead ────────────────────────────────────────────────────────────

func TestMarkAllAsReadParcial(t *testing.T) {
	a := alerta(model.UrgenciaAlto, false)
	b := alerta(model.UrgenciaMedio, false)
	c := alerta(model.UrgenciaBajo, false)
	backend := &stubBackend{
		alertas:      []model.Alerta{a, b, c},
		failMarkRead: map[uuid.UUID]error{b.ID: errors.New("service unavailable")},
	}
	s := NewStore(backend, cajera(), nil, time.Minute)
	require.NoError(t, s.Refresh(context.Background()))

	err := s.MarkAllAsRead(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no se pudieron marcar 1 de 3 alertas")

	// Las que si se marcaron quedan leidas; la fallida sigue pendiente.
	assert.Equal(t, 1, s.UnreadCount())
	for _, it := range s.Items() {
		if it.ID == b.ID {
			assert.False(t, it.Leida)
		} else {
			assert.True(t, it.Leida)
		}
	}
}

func TestMarkAllAsReadSinPendientes(t *testing.T) {
	backend := &stubBackend{alertas: []model.Alerta{alerta(model.UrgenciaAlto, true)}}
	s := NewStore(backend, cajera(), nil, time.Minute)
	require.NoError(t, s.Refresh(context.Background()))

	require.NoError(t, s.MarkAllAsRead(context.Background()))
	assert.Empty(t, backend.markedRead)
}

// ── Delete ───────────────────────────────────────────────────────────────────

func TestDeleteOptimista(t *testing.T) {
	a := alerta(model.UrgenciaAlto, false)
	backend := &stubBackend{alertas: []model.Alerta{a, alerta(model.UrgenciaBajo, true)}}
	s := NewStore(backend, cajera(), nil, time.Minute)
	require.NoError(t, s.Refresh(context.Background()))

	require.NoError(t, s.Delete(context.Background(), a.ID))
	assert.Len(t, s.Items(), 1)
	assert.Equal(t, 0, s.UnreadCount())
}

func TestDeleteFallidoResincroniza(t *testing.T) {
	a := alerta(model.UrgenciaAlto, false)
	backend := &stubBackend{
		alertas:   []model.Alerta{a},
		deleteErr: errors.New("internal server error"),
	}
	s := NewStore(backend, cajera(), nil, time.Minute)
	require.NoError(t, s.Refresh(context.Background()))
	callsBefore := backend.listCalls

	err := s.Delete(context.Background(), a.ID)
	require.Error(t, err)

	// El borrado local se deshizo con un re-fetch completo.
	assert.Equal(t, callsBefore+1, backend.listCalls)
	assert.Len(t, s.Items(), 1)
	assert.Equal(t, 1, s.UnreadCount())
}

func TestDeleteManyReconciliaUnaVez(t *testing.T) {
	a := alerta(model.UrgenciaAlto, false)
	b := alerta(model.UrgenciaMedio, false)
	backend := &stubBackend{
		alertas:   []model.Alerta{a, b},
		deleteErr: errors.New("internal server error"),
	}
	s := NewStore(backend, cajera(), nil, time.Minute)
	require.NoError(t, s.Refresh(context.Background()))
	callsBefore := backend.listCalls

	err := s.DeleteMany(context.Background(), []uuid.UUID{a.ID, b.ID})
	require.Error(t, err)
	assert.Equal(t, callsBefore+1, backend.listCalls, "una sola re-sincronizacion para todo el lote")
}

// ── Polling ──────────────────────────────────────────────────────────────────

func TestPollingSuspendeTrasTresFallas(t *testing.T) {
	backend := &stubBackend{listErr: errors.New("bad gateway")}
	s := NewStore(backend, cajera(), nil, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.Error(t, s.Refresh(ctx))
	}
	assert.True(t, s.Suspended())

	// La suspension solo se levanta con una nueva sesion (StartPolling).
	require.Error(t, s.Refresh(ctx))
	assert.True(t, s.Suspended())
}

func TestFallasNoConsecutivasNoSuspenden(t *testing.T) {
	backend := &stubBackend{listErr: errors.New("bad gateway")}
	s := NewStore(backend, cajera(), nil, time.Minute)
	ctx := context.Background()

	require.Error(t, s.Refresh(ctx))
	require.Error(t, s.Refresh(ctx))

	backend.mu.Lock()
	backend.listErr = nil
	backend.mu.Unlock()
	require.NoError(t, s.Refresh(ctx))

	backend.mu.Lock()
	backend.listErr = errors.New("bad gateway")
	backend.mu.Unlock()
	require.Error(t, s.Refresh(ctx))
	assert.False(t, s.Suspended(), "el exito intermedio reinicia el contador")
}

func TestStartPollingLimpiaSuspension(t *testing.T) {
	backend := &stubBackend{alertas: []model.Alerta{alerta(model.UrgenciaAlto, false)}}
	s := NewStore(backend, cajera(), nil, time.Hour)
	ctx := context.Background()

	// Simula la suspension previa.
	s.mu.Lock()
	s.failures = maxConsecutiveFailures
	s.suspended = true
	s.mu.Unlock()

	s.StartPolling(ctx)
	defer s.StopPolling()

	assert.False(t, s.Suspended())
	assert.Eventually(t, func() bool { return len(s.Items()) == 1 }, time.Second, 5*time.Millisecond,
		"el primer refresco corre de inmediato")
}

func TestStartPollingDobleEsNoOp(t *testing.T) {
	backend := &stubBackend{}
	s := NewStore(backend, cajera(), nil, time.Hour)
	ctx := context.Background()

	s.StartPolling(ctx)
	defer s.StopPolling()
	s.StartPolling(ctx)

	assert.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.listCalls == 1
	}, time.Second, 5*time.Millisecond)

	// Un segundo arranque no duplica el fetch inicial.
	time.Sleep(20 * time.Millisecond)
	backend.mu.Lock()
	calls := backend.listCalls
	backend.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestStopPollingPermiteReiniciar(t *testing.T) {
	backend := &stubBackend{}
	s := NewStore(backend, cajera(), nil, time.Hour)
	ctx := context.Background()

	s.StartPolling(ctx)
	s.StopPolling()

	s.StartPolling(ctx)
	defer s.StopPolling()

	assert.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.listCalls >= 2
	}, time.Second, 5*time.Millisecond, "cada sesion nueva relanza el ciclo")
}
