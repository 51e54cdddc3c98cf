package domain

import "strings"

// Topic names a broadcast channel. Delivery and order topics live in separate
// namespaces so identical ids never collide.
type Topic string

const (
	namespaceDelivery = "delivery"
	namespaceOrder    = "order"
)

// DeliveryTopic returns the topic observers of one delivery join.
func DeliveryTopic(deliveryID string) Topic {
	return Topic(namespaceDelivery + ":" + deliveryID)
}

// OrderTopic returns the topic observers of one order join.
func OrderTopic(orderID string) Topic {
	return Topic(namespaceOrder + ":" + orderID)
}

// Namespace returns "delivery" or "order".
func (t Topic) Namespace() string {
	ns, _, _ := strings.Cut(string(t), ":")
	return ns
}
