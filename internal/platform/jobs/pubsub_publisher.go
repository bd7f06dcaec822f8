// Package jobs carries named menu change notifications between instances over
// Cloud Pub/Sub so every process can drop its cached arrangements.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/hanko-field/namedmenus/internal/services"
)

// MenuChangedEventType is the eventType attribute carried by every message.
const MenuChangedEventType = "named_menu.changed"

var errForeignEvent = errors.New("not a named menu change")

// PubSubMenuChangePublisher publishes named menu change notifications to a Pub/Sub topic.
type PubSubMenuChangePublisher struct {
	topic *pubsub.Topic
}

// NewPubSubMenuChangePublisher constructs a Pub/Sub backed change publisher.
func NewPubSubMenuChangePublisher(topic *pubsub.Topic) (*PubSubMenuChangePublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub menu publisher: topic is required")
	}
	return &PubSubMenuChangePublisher{topic: topic}, nil
}

// PublishMenuChanged sends the event and waits for the server-assigned message ID.
func (p *PubSubMenuChangePublisher) PublishMenuChanged(ctx context.Context, event services.MenuChangeEvent) (string, error) {
	msg, err := newMenuChangeMessage(event)
	if err != nil {
		return "", err
	}
	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish menu change %s: %w", event.MenuName, err)
	}
	return id, nil
}

func newMenuChangeMessage(event services.MenuChangeEvent) (*pubsub.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal menu change: %w", err)
	}
	attrs := map[string]string{"eventType": MenuChangedEventType}
	for key, value := range map[string]string{
		"menuName": event.MenuName,
		"action":   event.Action,
		"actor":    event.Actor,
	} {
		if v := strings.TrimSpace(value); v != "" {
			attrs[key] = v
		}
	}
	return &pubsub.Message{Data: data, Attributes: attrs}, nil
}

// menuChangeFromMessage decodes a change notification. Messages of other
// event types return errForeignEvent.
func menuChangeFromMessage(msg *pubsub.Message) (services.MenuChangeEvent, error) {
	if t := msg.Attributes["eventType"]; t != MenuChangedEventType {
		return services.MenuChangeEvent{}, fmt.Errorf("%w: %q", errForeignEvent, t)
	}
	var event services.MenuChangeEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return services.MenuChangeEvent{}, fmt.Errorf("decode menu change: %w", err)
	}
	if strings.TrimSpace(event.MenuName) == "" {
		event.MenuName = msg.Attributes["menuName"]
	}
	if strings.TrimSpace(event.MenuName) == "" {
		return services.MenuChangeEvent{}, errors.New("decode menu change: menu name is missing")
	}
	return event, nil
}
