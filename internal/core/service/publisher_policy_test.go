package service

import (
	"context"
	"errors"
	"testing"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

func TestPublisherPolicy_Authorize(t *testing.T) {
	dir := &stubDirectory{deliveries: map[string]*domain.Delivery{
		"D1": {ID: "D1", PartnerID: "p-7"},
	}}
	policy := NewPublisherPolicy(dir)

	cases := []struct {
		name      string
		principal *domain.Principal
		delivery  string
		wantErr   error
	}{
		{"anonymous", nil, "D1", domain.ErrForbidden},
		{"admin any delivery", &domain.Principal{Subject: "a", Role: domain.RoleAdmin}, "UNKNOWN", nil},
		{"operator", &domain.Principal{Subject: "o", Role: domain.RoleOperator}, "D1", nil},
		{"assigned partner", &domain.Principal{Subject: "p-7", Role: domain.RoleDeliveryPartner}, "D1", nil},
		{"other partner", &domain.Principal{Subject: "p-8", Role: domain.RoleDeliveryPartner}, "D1", domain.ErrForbidden},
		{"partner unknown delivery", &domain.Principal{Subject: "p-7", Role: domain.RoleDeliveryPartner}, "D9", domain.ErrForbidden},
		{"customer", &domain.Principal{Subject: "c", Role: domain.RoleCustomer}, "D1", domain.ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Authorize(context.Background(), tc.principal, tc.delivery)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestPublisherPolicy_DirectoryFailure(t *testing.T) {
	policy := NewPublisherPolicy(&stubDirectory{err: errors.New("mongo down")})

	err := policy.Authorize(context.Background(), &domain.Principal{Subject: "p", Role: domain.RoleDeliveryPartner}, "D1")
	if err == nil || errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected infrastructure error, got: %v", err)
	}
}
