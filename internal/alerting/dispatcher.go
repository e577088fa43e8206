package alerting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stanley1208/ADK/internal/eventbus"
)

// Dispatcher forwards alert-raised events to subscribed operators.
// Only CRITICAL and HIGH priorities produce a push; NORMAL runs stay quiet.
type Dispatcher struct {
	eventBus *eventbus.Bus
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		sender:   sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("alert dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("alert dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.EventTypeAlertRaised {
				d.handleAlertRaised(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleAlertRaised(ctx context.Context, event *eventbus.Event) {
	priority := Priority(event.Metadata["priority"])
	if priority != PriorityCritical && priority != PriorityHigh {
		return
	}

	title := "Disaster Response Alert"
	if priority == PriorityCritical {
		title = "CRITICAL: Emergency Response Required"
	}

	d.sender.SendToAll(ctx, &NotificationPayload{
		Title: title,
		Body: fmt.Sprintf("Risk level %s detected (priority %s)",
			event.Metadata["risk_level"], priority),
		URL: fmt.Sprintf("/runs/%s", event.ResourceID),
		Tag: event.ResourceID,
	})
}
