package ports

import (
	"context"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

// DeliveryDirectory resolves delivery assignments owned by the order subsystem.
type DeliveryDirectory interface {
	FindDelivery(ctx context.Context, deliveryID string) (*domain.Delivery, error)
}

// DirectoryInvalidator drops any cached copy of a delivery so the next lookup
// reads the order subsystem again.
type DirectoryInvalidator interface {
	Invalidate(ctx context.Context, deliveryID string) error
}
