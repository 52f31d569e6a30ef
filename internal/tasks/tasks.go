// Package tasks defines the background jobs processed by cmd/worker.
package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names.
const (
	TypeOrderConfirmation = "order:confirmation"
	TypeRatingRefresh     = "rating:refresh"
)

// QueueDefault is the queue every task is placed on unless overridden.
const QueueDefault = "default"

// OrderConfirmationPayload identifies the paid order to confirm by email.
type OrderConfirmationPayload struct {
	OrderID string `json:"order_id"`
}

// RatingRefreshPayload identifies the plant whose summary is recomputed.
type RatingRefreshPayload struct {
	PlantID string `json:"plant_id"`
}

// NewOrderConfirmation builds the email task for a paid order. The task id
// is derived from the order so a replayed event cannot send a second email.
func NewOrderConfirmation(orderID string) (*asynq.Task, error) {
	payload, err := json.Marshal(OrderConfirmationPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderConfirmation, payload,
		asynq.TaskID(TypeOrderConfirmation+":"+orderID),
		asynq.MaxRetry(8),
		asynq.Queue(QueueDefault),
	), nil
}

// NewRatingRefresh builds a rating repair task for plantID.
func NewRatingRefresh(plantID string) (*asynq.Task, error) {
	payload, err := json.Marshal(RatingRefreshPayload{PlantID: plantID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRatingRefresh, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue(QueueDefault),
	), nil
}
