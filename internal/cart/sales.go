package cart

import (
	"context"

	"mostrador/internal/api"
	"mostrador/internal/model"
)

// apiSales is the production SalesAPI over the HTTP client.
type apiSales struct {
	client *api.Client
}

func NewSalesAPI(client *api.Client) SalesAPI {
	return &apiSales{client: client}
}

func (s *apiSales) RegistrarVenta(ctx context.Context, req model.RegistrarVentaRequest) (*model.VentaResponse, error) {
	var resp model.VentaResponse
	if err := s.client.Post(ctx, api.Endpoints.Ventas(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
