package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/warungclub/warung/pkg/event"
)

// Broadcaster fans an event payload out to connected display clients.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// OrderSubscriber keeps the terminal's OrderView current: every order event
// for the branch triggers a snapshot reload, and the raw event is forwarded
// to the kitchen display hub.
type OrderSubscriber struct {
	subscriber  events.Subscriber
	view        *OrderView
	broadcaster Broadcaster
	branchID    uuid.UUID
	logger      apt.Logger
}

func NewOrderSubscriber(sub events.Subscriber, view *OrderView, branchID uuid.UUID, logger apt.Logger) *OrderSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderSubscriber{
		subscriber: sub,
		view:       view,
		branchID:   branchID,
		logger:     logger,
	}
}

// SetBroadcaster wires the display hub. Optional; without it events only
// refresh the view.
func (s *OrderSubscriber) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *OrderSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting order subscriber", "topic", event.OrdersTopic)
	if s.subscriber == nil {
		return fmt.Errorf("order subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.OrdersTopic, s.handleEvent)
}

func (s *OrderSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid order event", "error", err)
		return nil
	}

	if evt.BranchID != s.branchID.String() {
		return nil
	}

	if err := s.view.Refresh(ctx); err != nil {
		// Offline or store down: keep the current view, the staged pending
		// writes already cover our own commands.
		s.logger.Info("cannot refresh order view", "error", err, "event_type", evt.EventType)
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(msg)
	}
	return nil
}
