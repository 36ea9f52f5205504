package cache

import (
	"context"

	"github.com/akoszegi/paintbot/internal/model"
)

// DeliveryJournal keeps a short history of reply deliveries for inspection
// over the admin API.
type DeliveryJournal interface {
	Record(ctx context.Context, rec model.DeliveryRecord) error
	Recent(ctx context.Context, limit int) ([]model.DeliveryRecord, error)
}
