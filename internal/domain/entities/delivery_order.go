package entities

import "time"

// OrderStatus is the lifecycle status of a product delivery order
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusConfirmed          OrderStatus = "confirmed"
	OrderStatusAssignedToDelivery OrderStatus = "assigned_to_delivery"
	OrderStatusDeliveryAccepted   OrderStatus = "delivery_accepted"
	OrderStatusOutForDelivery     OrderStatus = "out_for_delivery"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusDeliveryRejected   OrderStatus = "delivery_rejected"
	OrderStatusCancelled          OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusDeliveryRejected, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is one line of an order
type OrderItem struct {
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// DeliveryOrder is a product order fulfilled by a delivery partner
type DeliveryOrder struct {
	ID                string      `json:"_id"`
	Customer          PartyRef    `json:"user"`
	Items             []OrderItem `json:"items"`
	Status            OrderStatus `json:"status"`
	DeliveryAddress   string      `json:"deliveryAddress,omitempty"`
	DeliveryPartner   *PartyRef   `json:"deliveryPartner,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	FeedbackRequested bool        `json:"feedbackRequested"`
	CreatedAt         time.Time   `json:"createdAt"`
	Commerce
}

func (o *DeliveryOrder) RecordID() string        { return o.ID }
func (o *DeliveryOrder) RecordDomain() Domain    { return DomainDelivery }
func (o *DeliveryOrder) StatusValue() string     { return string(o.Status) }
func (o *DeliveryOrder) Created() time.Time      { return o.CreatedAt }
func (o *DeliveryOrder) CounterpartName() string { return o.Customer.Name }
func (o *DeliveryOrder) Paid() bool              { return o.IsPaid }

// RequiresOnlinePayment is true unless the customer chose cash on delivery
func (o *DeliveryOrder) RequiresOnlinePayment() bool {
	return !o.IsCashOnDelivery
}
