package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/observability"
)

const alertFeedBufferSize = 16

// AlertFeedService fans fired health alerts out to connected SSE clients.
// Redis pub/sub and NATS bridge nodes so an alert fired on one instance
// reaches subscribers held by another.
type AlertFeedService interface {
	AlertPublisher
	Subscribe(userID uint) (<-chan dto.HealthAlertResponse, func())
	Start(ctx context.Context)
}

type alertFeedService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *alertBroker
	nodeID       string
}

type alertEvent struct {
	Source string                  `json:"source"`
	Alert  dto.HealthAlertResponse `json:"alert"`
	SentAt time.Time               `json:"sent_at"`
}

type alertBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.HealthAlertResponse]struct{}
}

// NewAlertFeedService constructs the alert feed. Either backend may be nil;
// with both nil the feed still serves same-node subscribers.
func NewAlertFeedService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) AlertFeedService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":vitals"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".vitals"
	}

	return &alertFeedService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "alert_feed_service").Logger(),
		broker: &alertBroker{
			subscribers: make(map[uint]map[chan dto.HealthAlertResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *alertFeedService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// PublishAlert delivers to local subscribers immediately, then relays the
// event to the other nodes. Relay failures are logged and dropped; a live
// feed gap is acceptable, the alert row is already persisted.
func (s *alertFeedService) PublishAlert(ctx context.Context, alert dto.HealthAlertResponse) {
	s.broker.broadcast(alert.UserID, alert)

	event := alertEvent{
		Source: s.nodeID,
		Alert:  alert,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode alert event")
		return
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to relay alert via redis")
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to relay alert via nats")
		}
	}
}

func (s *alertFeedService) Subscribe(userID uint) (<-chan dto.HealthAlertResponse, func()) {
	channel := make(chan dto.HealthAlertResponse, alertFeedBufferSize)

	s.broker.subscribe(userID, channel)
	observability.AlertStreamClients().Inc()

	cleanup := func() {
		s.broker.unsubscribe(userID, channel)
		observability.AlertStreamClients().Dec()
	}

	return channel, cleanup
}

func (s *alertFeedService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("alert feed redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *alertFeedService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "peiban-vitals", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats alert subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain alert nats subscription")
		}
	}()
}

func (s *alertFeedService) handleEvent(payload []byte) {
	var event alertEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid alert event payload")
		return
	}

	// Events from this node already reached local subscribers.
	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(event.Alert.UserID, event.Alert)
}

func (b *alertBroker) subscribe(userID uint, ch chan dto.HealthAlertResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.HealthAlertResponse]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *alertBroker) unsubscribe(userID uint, ch chan dto.HealthAlertResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

// broadcast never blocks; a slow client loses events rather than stalling
// the publisher.
func (b *alertBroker) broadcast(userID uint, alert dto.HealthAlertResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers := b.subscribers[userID]
	for ch := range subscribers {
		select {
		case ch <- alert:
		default:
		}
	}
}
