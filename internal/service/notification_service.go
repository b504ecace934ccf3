package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
)

// NotificationService pushes lifecycle events onto a capped Redis list that
// external notifiers (mail, chat, dashboards) consume. The engine never
// blocks on notification delivery; a feed failure is logged and dropped.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *redis.Client
	logger     *zap.Logger
	cfg        config.NotifyConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, client *redis.Client, logger *zap.Logger, cfg config.NotifyConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      client,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handle)
	n.dispatcher.Subscribe(events.EventTicketTransitioned, n.handle)
	n.dispatcher.Subscribe(events.EventTicketOverdue, n.handle)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("notification",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", event.Actor.Name))

	if n.redis == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("notification encode failed", zap.Error(err))
		return nil
	}
	pipe := n.redis.Pipeline()
	pipe.LPush(ctx, n.cfg.FeedKey, body)
	if n.cfg.FeedMaxLen > 0 {
		pipe.LTrim(ctx, n.cfg.FeedKey, 0, n.cfg.FeedMaxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		n.logger.Warn("notification feed push failed", zap.Error(err))
	}
	return nil
}
