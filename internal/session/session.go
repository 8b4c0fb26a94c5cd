// Package session holds the authenticated identity of the operator. It is the
// only cross-screen shared state besides the alert store: the cart submit and
// the alert read receipts require a current identity, and the alert poller
// starts and stops on session transitions.
package session

import (
	"context"
	"errors"
	"sync"

	"mostrador/internal/api"
	"mostrador/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNoAutenticado is a precondition failure, not a network error: operations
// that need an identity raise it synchronously before any request is sent.
var ErrNoAutenticado = errors.New("no hay sesion iniciada")

// Identity is the current operator, decoded from the access token claims.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Nombre   string
	Rol      string
}

// claims mirrors the custom claims the backend embeds in every access token.
type claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
	jwt.RegisteredClaims
}

// Manager implements api.TokenSource and notifies listeners on login/logout.
type Manager struct {
	client *api.Client

	mu        sync.RWMutex
	token     string
	identity  *Identity
	listeners []func(authenticated bool)
}

// NewManager returns an unbound Manager. Bind must be called with the API
// client before the first Login; the Manager itself is the client's token
// source.
func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Bind(client *api.Client) {
	m.client = client
}

// OnChange registers a listener invoked after every session transition.
// Listeners must be registered before the first Login.
func (m *Manager) OnChange(fn func(authenticated bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Login authenticates against the backend and decodes the token claims into
// the current identity. The token is held in memory only.
func (m *Manager) Login(ctx context.Context, username, password string) (*Identity, error) {
	var resp model.LoginResponse
	err := m.client.Post(ctx, api.Endpoints.Login(), model.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	identity, err := decodeIdentity(resp.AccessToken)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.token = resp.AccessToken
	m.identity = identity
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	log.Info().Str("usuario", identity.Username).Str("rol", identity.Rol).Msg("sesion iniciada")
	for _, fn := range listeners {
		fn(true)
	}
	return identity, nil
}

// Logout discards the token and identity and notifies listeners.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.token = ""
	m.identity = nil
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	log.Info().Msg("sesion cerrada")
	for _, fn := range listeners {
		fn(false)
	}
}

// Current returns the operator identity or ErrNoAutenticado.
func (m *Manager) Current() (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil, ErrNoAutenticado
	}
	id := *m.identity
	return &id, nil
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// decodeIdentity extracts the identity claims without verifying the signature:
// the terminal does not hold the backend's HMAC secret, and the token is only
// trusted as far as the server that issued it over the authenticated channel.
func decodeIdentity(token string) (*Identity, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, errors.New("token de acceso mal formado")
	}
	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, errors.New("token de acceso mal formado")
	}
	return &Identity{
		UserID:   uid,
		Username: c.Username,
		Nombre:   c.Nombre,
		Rol:      c.Rol,
	}, nil
}
