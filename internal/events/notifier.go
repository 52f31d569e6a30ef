package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-nursery/internal/store"
	"github.com/noah-isme/backend-nursery/internal/tasks"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskNotifier turns selected events into background tasks.
type TaskNotifier struct {
	Queue  Enqueuer
	Logger zerolog.Logger
}

// Notify implements Notifier. Topics without a task mapping are ignored.
func (n *TaskNotifier) Notify(ctx context.Context, event store.DomainEvent) error {
	if n == nil || n.Queue == nil {
		return nil
	}
	task, err := taskFor(event)
	if err != nil || task == nil {
		return err
	}
	info, err := n.Queue.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	n.Logger.Debug().Str("topic", event.Topic).Str("task_id", info.ID).Msg("task enqueued")
	return nil
}

func taskFor(event store.DomainEvent) (*asynq.Task, error) {
	switch event.Topic {
	case TopicOrderPaid:
		return tasks.NewOrderConfirmation(event.AggregateID)
	case TopicReviewCreated:
		var body struct {
			PlantID string `json:"plant_id"`
		}
		if err := json.Unmarshal(event.Payload, &body); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", event.Topic, err)
		}
		if body.PlantID == "" {
			return nil, nil
		}
		return tasks.NewRatingRefresh(body.PlantID)
	default:
		return nil, nil
	}
}

// LogNotifier writes every event to the log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	n.Logger.Info().
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		Str("event_id", store.UUIDString(event.ID)).
		Msg("domain event")
	return nil
}
