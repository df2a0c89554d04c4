package services

import (
	"fmt"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

// deliveryTransitions is the forward-only order state machine. Any
// non-terminal order can also be cancelled.
var deliveryTransitions = map[entities.OrderStatus]map[entities.Action]entities.OrderStatus{
	entities.OrderStatusPending: {
		entities.ActionConfirmOrder: entities.OrderStatusConfirmed,
	},
	entities.OrderStatusConfirmed: {
		entities.ActionAssignDelivery: entities.OrderStatusAssignedToDelivery,
	},
	entities.OrderStatusAssignedToDelivery: {
		entities.ActionAcceptDelivery: entities.OrderStatusDeliveryAccepted,
		entities.ActionRejectDelivery: entities.OrderStatusDeliveryRejected,
	},
	entities.OrderStatusDeliveryAccepted: {
		entities.ActionStartDelivery:  entities.OrderStatusOutForDelivery,
		entities.ActionRejectDelivery: entities.OrderStatusDeliveryRejected,
	},
	entities.OrderStatusOutForDelivery: {
		entities.ActionCompleteDelivery: entities.OrderStatusDelivered,
	},
}

// DeliveryWorkflow validates delivery order transitions
type DeliveryWorkflow struct{}

// Next returns the status an order moves to when action is applied
func (DeliveryWorkflow) Next(current entities.OrderStatus, action entities.Action) (entities.OrderStatus, error) {
	if current.IsTerminal() {
		return "", apperrors.NewValidationError(fmt.Sprintf("order is already %s", current))
	}
	if action == entities.ActionCancelOrder {
		if _, known := deliveryTransitions[current]; known {
			return entities.OrderStatusCancelled, nil
		}
	}
	if next, ok := deliveryTransitions[current][action]; ok {
		return next, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("cannot %s an order that is %s", action.Label(), current))
}

// Allowed lists the transitions available from current, cancellation last
func (w DeliveryWorkflow) Allowed(current entities.OrderStatus) []entities.Action {
	if current.IsTerminal() {
		return nil
	}
	var out []entities.Action
	for _, a := range []entities.Action{
		entities.ActionConfirmOrder, entities.ActionAssignDelivery, entities.ActionAcceptDelivery,
		entities.ActionStartDelivery, entities.ActionRejectDelivery, entities.ActionCompleteDelivery,
	} {
		if _, ok := deliveryTransitions[current][a]; ok {
			out = append(out, a)
		}
	}
	if _, known := deliveryTransitions[current]; known {
		out = append(out, entities.ActionCancelOrder)
	}
	return out
}
