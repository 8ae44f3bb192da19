package velocity

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	// RecordSale appends a sale event. Negative quantities model returns.
	RecordSale(ctx context.Context, itemID string, quantity float64, locationID string) error
	// CalculateVelocity derives windowed rates for the item, restricted to
	// locationID when it is non-empty.
	CalculateVelocity(ctx context.Context, itemID, locationID string) (model.SalesVelocity, error)
}
