package jobs

import (
	"context"
	"errors"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/hanko-field/namedmenus/internal/services"
)

// MenuChangeSubscriber evicts locally cached arrangements when another
// instance reports a menu change.
type MenuChangeSubscriber struct {
	sub       *pubsub.Subscription
	cache     services.CacheEvicter
	languages []string
	logger    *zap.Logger
}

// MenuChangeSubscriberDeps groups constructor parameters for the subscriber.
type MenuChangeSubscriberDeps struct {
	Subscription *pubsub.Subscription
	Cache        services.CacheEvicter
	// Languages are evicted when an event does not list any.
	Languages []string
	Logger    *zap.Logger
}

// NewMenuChangeSubscriber constructs the subscriber.
func NewMenuChangeSubscriber(deps MenuChangeSubscriberDeps) (*MenuChangeSubscriber, error) {
	if deps.Subscription == nil {
		return nil, errors.New("pubsub menu subscriber: subscription is required")
	}
	if deps.Cache == nil {
		return nil, errors.New("pubsub menu subscriber: cache is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuChangeSubscriber{
		sub:       deps.Subscription,
		cache:     deps.Cache,
		languages: append([]string(nil), deps.Languages...),
		logger:    logger,
	}, nil
}

// Run receives messages until ctx is cancelled. Undecodable messages are acked
// and logged because redelivery cannot make them valid.
func (s *MenuChangeSubscriber) Run(ctx context.Context) error {
	err := s.sub.Receive(ctx, s.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *MenuChangeSubscriber) handle(ctx context.Context, msg *pubsub.Message) {
	defer msg.Ack()

	event, err := menuChangeFromMessage(msg)
	if errors.Is(err, errForeignEvent) {
		return
	}
	if err != nil {
		s.logger.Warn("menu change message dropped", zap.String("messageId", msg.ID), zap.Error(err))
		return
	}

	langs := event.Languages
	if len(langs) == 0 {
		langs = s.languages
	}
	s.cache.Evict(ctx, event.MenuName, langs...)
	s.logger.Debug("named menu evicted",
		zap.String("menuName", event.MenuName),
		zap.String("action", event.Action),
		zap.Strings("languages", langs),
	)
}
