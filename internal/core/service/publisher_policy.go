package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

// PublisherPolicy decides who may publish positions for a delivery.
// Operators and admins may publish for any delivery; a delivery partner only
// for deliveries assigned to them.
type PublisherPolicy struct {
	directory ports.DeliveryDirectory
}

// NewPublisherPolicy returns a policy backed by the delivery directory.
func NewPublisherPolicy(directory ports.DeliveryDirectory) *PublisherPolicy {
	return &PublisherPolicy{directory: directory}
}

// Authorize returns nil when p may publish for deliveryID.
func (p *PublisherPolicy) Authorize(ctx context.Context, principal *domain.Principal, deliveryID string) error {
	if principal == nil {
		return fmt.Errorf("%w: publisher is not authenticated", domain.ErrForbidden)
	}

	switch principal.Role {
	case domain.RoleAdmin, domain.RoleOperator:
		return nil
	case domain.RoleDeliveryPartner:
		d, err := p.directory.FindDelivery(ctx, deliveryID)
		if errors.Is(err, domain.ErrDeliveryNotFound) {
			return fmt.Errorf("%w: unknown delivery %s", domain.ErrForbidden, deliveryID)
		}
		if err != nil {
			return fmt.Errorf("authorize publisher: %w", err)
		}
		if d.PartnerID == "" || d.PartnerID != principal.Subject {
			return fmt.Errorf("%w: delivery %s is not assigned to %s", domain.ErrForbidden, deliveryID, principal.Subject)
		}
		return nil
	default:
		return fmt.Errorf("%w: role %q may not publish", domain.ErrForbidden, principal.Role)
	}
}
