package alerts

import (
	"context"

	"mostrador/internal/api"
	"mostrador/internal/model"

	"github.com/google/uuid"
)

// apiBackend adapts the HTTP client to the Backend interface.
type apiBackend struct {
	client *api.Client
}

// NewBackend returns the production Backend over the remote API.
func NewBackend(client *api.Client) Backend {
	return &apiBackend{client: client}
}

func (b *apiBackend) List(ctx context.Context) ([]model.Alerta, error) {
	var items []model.Alerta
	if err := b.client.Get(ctx, api.Endpoints.Alertas(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (b *apiBackend) MarkRead(ctx context.Context, id uuid.UUID, req model.MarcarLeidaRequest) error {
	return b.client.Put(ctx, api.Endpoints.AlertaLeida(id), req, nil)
}

func (b *apiBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.client.Delete(ctx, api.Endpoints.Alerta(id))
}
