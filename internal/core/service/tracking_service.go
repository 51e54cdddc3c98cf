package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/api/metrics"
	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

const orderingShards = 64

// Authorizer abstracts the publisher policy. A nil Authorizer accepts every
// publisher.
type Authorizer interface {
	Authorize(ctx context.Context, principal *domain.Principal, deliveryID string) error
}

type trackingService struct {
	store       ports.TrackingStore
	publisher   ports.Publisher
	authz       Authorizer
	invalidator ports.DirectoryInvalidator
	now         func() time.Time
	locks       [orderingShards]sync.Mutex
	log         zerolog.Logger
}

// TrackingOption customises a tracking service.
type TrackingOption func(*trackingService)

// WithDirectoryInvalidator makes Forget drop the delivery's cached directory
// entry.
func WithDirectoryInvalidator(inv ports.DirectoryInvalidator) TrackingOption {
	return func(s *trackingService) { s.invalidator = inv }
}

// NewTrackingService returns a TrackingService implementation. authz may be nil.
func NewTrackingService(
	store ports.TrackingStore,
	publisher ports.Publisher,
	authz Authorizer,
	log zerolog.Logger,
	opts ...TrackingOption,
) ports.TrackingService {
	s := &trackingService{
		store:     store,
		publisher: publisher,
		authz:     authz,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest normalises, authorises, stores and publishes one sample. Samples of
// the same delivery are applied and published under one lock, so subscribers
// see them in the order the store accepted them.
func (s *trackingService) Ingest(ctx context.Context, in ports.IngestInput) (domain.TrackingState, error) {
	start := time.Now()
	state, err := s.ingest(ctx, in)
	if err != nil {
		reason := reasonStore
		var rej *sampleRejection
		switch {
		case errors.As(err, &rej):
			reason = rej.reason
		case errors.Is(err, domain.ErrForbidden):
			reason = reasonForbidden
		}
		metrics.SamplesRejectedTotal.WithLabelValues(in.Transport, reason).Inc()
		metrics.IngestDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
		return domain.TrackingState{}, err
	}

	metrics.SamplesAcceptedTotal.WithLabelValues(in.Transport).Inc()
	metrics.IngestDuration.WithLabelValues("accepted").Observe(time.Since(start).Seconds())
	metrics.TrackedDeliveries.Set(float64(s.store.Len()))
	return state, nil
}

func (s *trackingService) ingest(ctx context.Context, in ports.IngestInput) (domain.TrackingState, error) {
	sample, err := normalizeSample(in.Raw)
	if err != nil {
		return domain.TrackingState{}, err
	}

	if s.authz != nil {
		if err := s.authz.Authorize(ctx, in.Principal, sample.DeliveryID); err != nil {
			return domain.TrackingState{}, err
		}
	}

	mu := s.lockFor(sample.DeliveryID)
	mu.Lock()
	defer mu.Unlock()

	sample.ObservedAt = s.now().UTC()
	state, err := s.store.Upsert(sample)
	if err != nil {
		return domain.TrackingState{}, fmt.Errorf("ingest %s: %w", sample.DeliveryID, err)
	}

	reached := s.publisher.Publish(domain.DeliveryTopic(state.DeliveryID), domain.EventTrackingUpdate, state)
	if state.HasOrder() {
		reached += s.publisher.Publish(domain.OrderTopic(*state.OrderID), domain.EventTrackingUpdate, state)
	}

	s.log.Debug().
		Str("delivery_id", state.DeliveryID).
		Str("transport", in.Transport).
		Int("subscribers", reached).
		Msg("sample accepted")

	return state, nil
}

// GetByDelivery returns the latest state and full history of a delivery.
func (s *trackingService) GetByDelivery(_ context.Context, deliveryID string) (*ports.DeliveryTracking, error) {
	deliveryID = pathID(deliveryID)
	state, ok := s.store.Get(deliveryID)
	if !ok {
		return nil, fmt.Errorf("delivery %s: %w", deliveryID, domain.ErrTrackingNotFound)
	}
	return &ports.DeliveryTracking{
		Tracking: state,
		History:  s.store.History(deliveryID),
	}, nil
}

// GetByOrder returns the latest state of a delivery linked to orderID.
func (s *trackingService) GetByOrder(_ context.Context, orderID string) (domain.TrackingState, error) {
	orderID = pathID(orderID)
	state, ok := s.store.FindByOrder(orderID)
	if !ok {
		return domain.TrackingState{}, fmt.Errorf("order %s: %w", orderID, domain.ErrTrackingNotFound)
	}
	return state, nil
}

// Forget drops a delivery's state once it is complete. Observers keep their
// subscriptions; the next sample for the id starts a fresh trail. The cached
// directory entry is invalidated even when no state was tracked.
func (s *trackingService) Forget(ctx context.Context, deliveryID string) error {
	deliveryID = pathID(deliveryID)
	if deliveryID != "" && s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, deliveryID); err != nil {
			s.log.Warn().Err(err).Str("delivery_id", deliveryID).Msg("directory cache invalidation failed")
		}
	}

	mu := s.lockFor(deliveryID)
	mu.Lock()
	defer mu.Unlock()

	if !s.store.Forget(deliveryID) {
		return fmt.Errorf("delivery %s: %w", deliveryID, domain.ErrTrackingNotFound)
	}
	metrics.RetentionEvictionsTotal.WithLabelValues("forget").Inc()
	metrics.TrackedDeliveries.Set(float64(s.store.Len()))
	s.log.Info().Str("delivery_id", deliveryID).Msg("tracking forgotten")
	return nil
}

// pathID applies the ingest canonicalisation to an id taken from a URL.
func pathID(id string) string {
	canonical, _ := domain.CanonicalID(id)
	return canonical
}

func (s *trackingService) lockFor(deliveryID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deliveryID))
	return &s.locks[h.Sum32()%orderingShards]
}
