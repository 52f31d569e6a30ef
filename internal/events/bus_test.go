package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/events"
	"github.com/noah-isme/backend-nursery/internal/store"
	"github.com/noah-isme/backend-nursery/internal/tasks"
)

type stubStore struct {
	lastParams store.InsertDomainEventParams
	err        error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg store.InsertDomainEventParams) (store.DomainEvent, error) {
	s.lastParams = arg
	if s.err != nil {
		return store.DomainEvent{}, s.err
	}
	return store.DomainEvent{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  time.Now(),
	}, nil
}

type captureNotifier struct {
	events []store.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

type captureQueue struct {
	tasks []*asynq.Task
	err   error
}

func (c *captureQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func TestEmitPersistsEvent(t *testing.T) {
	st := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: st, Notifiers: []events.Notifier{notifier}}

	event, err := bus.Emit(context.Background(), events.TopicOrderCreated, "order-1", map[string]any{"total": "52.78"})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, st.lastParams.Topic)
	require.JSONEq(t, `{"total":"52.78"}`, string(st.lastParams.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)
}

func TestEmitValidation(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), " ", "x", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderPaid, "", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderPaid, "x", json.RawMessage(`{bad`))
	require.Error(t, err)

	var nilBus *events.Bus
	_, err = nilBus.Emit(context.Background(), events.TopicOrderPaid, "x", nil)
	require.Error(t, err)
}

func TestEmitStoreFailureSkipsNotifiers(t *testing.T) {
	notifier := &captureNotifier{}
	bus := events.Bus{Store: &stubStore{err: errors.New("down")}, Notifiers: []events.Notifier{notifier}}
	_, err := bus.Emit(context.Background(), events.TopicOrderPaid, "x", nil)
	require.Error(t, err)
	require.Empty(t, notifier.events)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	failing := &captureNotifier{err: errors.New("boom")}
	ok := &captureNotifier{}
	bus := events.Bus{Store: &stubStore{}, Notifiers: []events.Notifier{failing, nil, ok}}
	event, err := bus.Emit(context.Background(), events.TopicOrderPaid, "x", nil)
	require.Error(t, err)
	require.ErrorContains(t, err, "boom")
	require.True(t, event.ID.Valid)
	require.Len(t, ok.events, 1)
	require.JSONEq(t, `{}`, string(ok.events[0].Payload))
}

func TestTaskNotifierMapsTopics(t *testing.T) {
	queue := &captureQueue{}
	n := &events.TaskNotifier{Queue: queue, Logger: zerolog.Nop()}
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, store.DomainEvent{Topic: events.TopicOrderPaid, AggregateID: "order-1"}))
	require.NoError(t, n.Notify(ctx, store.DomainEvent{Topic: events.TopicReviewCreated, AggregateID: "r1", Payload: []byte(`{"plant_id":"plant_001"}`)}))
	require.NoError(t, n.Notify(ctx, store.DomainEvent{Topic: events.TopicOrderCreated, AggregateID: "order-1"}))

	require.Len(t, queue.tasks, 2)
	require.Equal(t, tasks.TypeOrderConfirmation, queue.tasks[0].Type())
	require.Equal(t, tasks.TypeRatingRefresh, queue.tasks[1].Type())
	require.JSONEq(t, `{"plant_id":"plant_001"}`, string(queue.tasks[1].Payload()))
}

func TestTaskNotifierDuplicateIsNotAnError(t *testing.T) {
	n := &events.TaskNotifier{Queue: &captureQueue{err: asynq.ErrTaskIDConflict}, Logger: zerolog.Nop()}
	require.NoError(t, n.Notify(context.Background(), store.DomainEvent{Topic: events.TopicOrderPaid, AggregateID: "o"}))

	n.Queue = &captureQueue{err: errors.New("redis down")}
	require.Error(t, n.Notify(context.Background(), store.DomainEvent{Topic: events.TopicOrderPaid, AggregateID: "o"}))
}
