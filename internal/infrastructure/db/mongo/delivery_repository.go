package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

const collectionDeliveries = "deliveries"

// DeliveryRepository reads delivery assignments published by the order
// subsystem. It never writes. The collection is a read model projected from
// the order subsystem's own store, one document per delivery.
type DeliveryRepository struct {
	col *mongo.Collection
}

func NewDeliveryRepository(db *mongo.Database, collection string) *DeliveryRepository {
	if collection == "" {
		collection = collectionDeliveries
	}
	return &DeliveryRepository{col: db.Collection(collection)}
}

type mongoPoint struct {
	Lat *float64 `bson:"lat"`
	Lng *float64 `bson:"lng"`
}

type mongoDelivery struct {
	DeliveryID string      `bson:"delivery_id"`
	OrderID    string      `bson:"order_id"`
	PartnerID  string      `bson:"partner_id"`
	Status     string      `bson:"status"`
	Pickup     *mongoPoint `bson:"pickup,omitempty"`
	Drop       *mongoPoint `bson:"drop,omitempty"`
}

// FindDelivery retrieves a delivery by its id.
func (r *DeliveryRepository) FindDelivery(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoDelivery
	err := r.col.FindOne(ctx, bson.M{"delivery_id": deliveryID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("delivery %s: %w", deliveryID, domain.ErrDeliveryNotFound)
		}
		return nil, fmt.Errorf("find delivery: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates a non-unique lookup index on delivery_id.
func (r *DeliveryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "delivery_id", Value: 1}},
		Options: options.Index().SetName("delivery_id_lookup"),
	})
	return err
}

func (d mongoDelivery) toDomain() *domain.Delivery {
	return &domain.Delivery{
		ID:        d.DeliveryID,
		OrderID:   d.OrderID,
		PartnerID: d.PartnerID,
		Status:    d.Status,
		Pickup:    d.Pickup.toDomain(),
		Drop:      d.Drop.toDomain(),
	}
}

func (p *mongoPoint) toDomain() *domain.LatLng {
	if p == nil || p.Lat == nil || p.Lng == nil {
		return nil
	}
	return &domain.LatLng{Lat: *p.Lat, Lng: *p.Lng}
}
