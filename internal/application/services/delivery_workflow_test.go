package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/application/services"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

func TestDeliveryWorkflow_HappyPath(t *testing.T) {
	var wf services.DeliveryWorkflow
	status := entities.OrderStatusPending
	for _, step := range []struct {
		action entities.Action
		want   entities.OrderStatus
	}{
		{entities.ActionConfirmOrder, entities.OrderStatusConfirmed},
		{entities.ActionAssignDelivery, entities.OrderStatusAssignedToDelivery},
		{entities.ActionAcceptDelivery, entities.OrderStatusDeliveryAccepted},
		{entities.ActionStartDelivery, entities.OrderStatusOutForDelivery},
		{entities.ActionCompleteDelivery, entities.OrderStatusDelivered},
	} {
		next, err := wf.Next(status, step.action)
		require.NoError(t, err, "%s from %s", step.action, status)
		assert.Equal(t, step.want, next)
		status = next
	}
}

func TestDeliveryWorkflow_NoBackwardsOrTerminalMoves(t *testing.T) {
	var wf services.DeliveryWorkflow

	_, err := wf.Next(entities.OrderStatusOutForDelivery, entities.ActionAcceptDelivery)
	assert.Error(t, err)

	_, err = wf.Next(entities.OrderStatusPending, entities.ActionCompleteDelivery)
	assert.Error(t, err)

	for _, terminal := range []entities.OrderStatus{entities.OrderStatusDelivered, entities.OrderStatusDeliveryRejected, entities.OrderStatusCancelled} {
		_, err = wf.Next(terminal, entities.ActionCancelOrder)
		assert.Error(t, err)
		assert.Empty(t, wf.Allowed(terminal))
	}
}

func TestDeliveryWorkflow_CancelFromAnyNonTerminal(t *testing.T) {
	var wf services.DeliveryWorkflow
	for _, s := range []entities.OrderStatus{
		entities.OrderStatusPending, entities.OrderStatusConfirmed, entities.OrderStatusAssignedToDelivery,
		entities.OrderStatusDeliveryAccepted, entities.OrderStatusOutForDelivery,
	} {
		next, err := wf.Next(s, entities.ActionCancelOrder)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusCancelled, next)
		assert.Contains(t, wf.Allowed(s), entities.ActionCancelOrder)
	}
}

func TestDeliveryWorkflow_Reject(t *testing.T) {
	var wf services.DeliveryWorkflow
	next, err := wf.Next(entities.OrderStatusDeliveryAccepted, entities.ActionRejectDelivery)
	require.NoError(t, err)
	assert.Equal(t, entities.OrderStatusDeliveryRejected, next)
}
