package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/pkg/logger"
	"github.com/hireloop/jobboard-api/pkg/messaging"
	"github.com/hireloop/jobboard-api/pkg/metrics"
)

// DefaultChannel is the shared broker channel used for cross-instance
// event fan-out.
const DefaultChannel = "jobboard:realtime:events"

// envelope wraps a user-addressed event for transit through the broker
// so every instance can replay it into its local registry.
type envelope struct {
	RecipientID uuid.UUID   `json:"recipient_id"`
	Type        EventType   `json:"type"`
	Payload     interface{} `json:"payload"`
}

// Publisher translates completed domain mutations into outbound events.
// It must be called only after the mutation is durably committed: an
// event implies the underlying state change already succeeded.
//
// Publishing is best-effort. Transport errors are logged and swallowed,
// never surfaced to the HTTP response that triggered the mutation.
type Publisher struct {
	registry *Registry
	broker   messaging.Broker // nil in single-instance mode
	channel  string
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewPublisher(registry *Registry, log *logger.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{
		registry: registry,
		channel:  DefaultChannel,
		logger:   log,
		metrics:  m,
	}
}

// WithBroker enables the cross-instance bridge. Events are published to
// the broker channel and every instance (including this one) fans them
// back into its local registry via Run.
func (p *Publisher) WithBroker(broker messaging.Broker) *Publisher {
	p.broker = broker
	return p
}

// Publish delivers ev to each recipient's live sessions. Recipients
// equal to actorID are suppressed: an event is never delivered to its
// own sender.
func (p *Publisher) Publish(ctx context.Context, actorID uuid.UUID, ev Event, recipients ...uuid.UUID) {
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	}

	for _, recipient := range recipients {
		if recipient == uuid.Nil || recipient == actorID {
			continue
		}

		if p.broker != nil {
			p.publishRemote(ctx, recipient, ev)
			continue
		}
		p.registry.SendToUser(recipient, ev)
	}
}

func (p *Publisher) publishRemote(ctx context.Context, recipient uuid.UUID, ev Event) {
	env := envelope{RecipientID: recipient, Type: ev.Type, Payload: ev.Payload}
	if err := p.broker.Publish(ctx, p.channel, env); err != nil {
		// Best-effort: the client re-fetches on its next load.
		if p.logger != nil {
			p.logger.Error(err, "failed to publish realtime event",
				"event_type", string(ev.Type), "recipient_id", recipient.String())
		}
	}
}

// Run consumes the broker channel and replays events into the local
// registry. It blocks until ctx is cancelled. A no-op when no broker is
// configured.
func (p *Publisher) Run(ctx context.Context) error {
	if p.broker == nil {
		<-ctx.Done()
		return nil
	}

	msgs, err := p.broker.Subscribe(ctx, p.channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-msgs:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				if p.logger != nil {
					p.logger.Error(err, "failed to decode realtime envelope")
				}
				continue
			}
			if env.RecipientID == uuid.Nil || env.Type == "" {
				continue
			}
			p.registry.SendToUser(env.RecipientID, Event{Type: env.Type, Payload: env.Payload})
		}
	}
}
