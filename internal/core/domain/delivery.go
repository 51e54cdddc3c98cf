package domain

// Roles recognised in access tokens.
const (
	RoleAdmin           = "admin"
	RoleOperator        = "operator"
	RoleDeliveryPartner = "delivery_partner"
	RoleCustomer        = "customer"
)

// Delivery is the order subsystem's view of an assignment. This service only
// reads it. Pickup and Drop are nil when the order subsystem has no
// coordinates for the seller or the customer address.
type Delivery struct {
	ID        string  `json:"delivery_id"`
	OrderID   string  `json:"order_id"`
	PartnerID string  `json:"partner_id"`
	Status    string  `json:"status"`
	Pickup    *LatLng `json:"pickup"`
	Drop      *LatLng `json:"drop"`
}

// Principal is the authenticated caller extracted from a verified token.
type Principal struct {
	Subject string
	Role    string
}
