package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// Notification kinds.
const (
	NotifyKindCode    = "code"
	NotifyKindComment = "comment"
	NotifyKindLike    = "like"
)

// Notifier fans a submission event out to everyone following it. It is
// called once per accepted attempt, after commit.
type Notifier interface {
	NotifyAll(ctx context.Context, sub *types.Submission, kind string, actor *types.User) error
	Close() error
}

// NotificationEvent is the payload published by the redis and kafka
// backends.
type NotificationEvent struct {
	Kind          string    `json:"kind"`
	SubmissionID  uuid.UUID `json:"submission_id"`
	SubmissionKey string    `json:"submission_key"`
	OwnerID       uuid.UUID `json:"owner_id"`
	ActorID       uuid.UUID `json:"actor_id"`
	ActorUsername string    `json:"actor_username,omitempty"`
	TrackID       string    `json:"track_id"`
	Slug          string    `json:"slug"`
	Version       int       `json:"version"`
	At            time.Time `json:"at"`
}

func newNotificationEvent(sub *types.Submission, kind string, actor *types.User) (NotificationEvent, error) {
	if sub == nil {
		return NotificationEvent{}, fmt.Errorf("notification without submission")
	}
	ev := NotificationEvent{
		Kind:          strings.TrimSpace(kind),
		SubmissionID:  sub.ID,
		SubmissionKey: sub.Key,
		OwnerID:       sub.UserID,
		TrackID:       sub.TrackID,
		Slug:          sub.Slug,
		Version:       sub.Version,
		At:            time.Now().UTC(),
	}
	if actor != nil {
		ev.ActorID = actor.ID
		ev.ActorUsername = actor.Username
	}
	return ev, nil
}

type NotifierConfig struct {
	Backend      string
	RedisAddr    string
	RedisChannel string
	KafkaBrokers []string
	KafkaTopic   string
}

// NewNotifier picks the backend named by cfg.Backend: "redis", "kafka" or
// "log" (the default).
func NewNotifier(ctx context.Context, log *logger.Logger, cfg NotifierConfig) (Notifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "log", "none":
		return NewLogNotifier(log), nil
	case "redis":
		addr := strings.TrimSpace(cfg.RedisAddr)
		if addr == "" {
			return nil, fmt.Errorf("missing REDIS_ADDR")
		}
		rdb := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisNotifier(log, rdb, cfg.RedisChannel), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("missing KAFKA_BROKERS")
		}
		topic := strings.TrimSpace(cfg.KafkaTopic)
		if topic == "" {
			topic = "iterations.notifications"
		}
		w := &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		}
		return NewKafkaNotifier(log, w), nil
	default:
		return nil, fmt.Errorf("unknown notify backend %q", cfg.Backend)
	}
}

type logNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log.With("service", "LogNotifier")}
}

func (n *logNotifier) NotifyAll(ctx context.Context, sub *types.Submission, kind string, actor *types.User) error {
	ev, err := newNotificationEvent(sub, kind, actor)
	if err != nil {
		return err
	}
	n.log.Info("notify",
		"kind", ev.Kind,
		"submission_key", ev.SubmissionKey,
		"problem", ev.TrackID+"/"+ev.Slug,
		"version", ev.Version,
		"actor", ev.ActorUsername,
	)
	observability.Current().IncNotification("log", "ok")
	return nil
}

func (n *logNotifier) Close() error { return nil }

// redisPublisher is the part of *goredis.Client the notifier uses.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     redisPublisher
	channel string
}

func NewRedisNotifier(log *logger.Logger, rdb redisPublisher, channel string) Notifier {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "iterations.notifications"
	}
	return &redisNotifier{log: log.With("service", "RedisNotifier"), rdb: rdb, channel: channel}
}

func (n *redisNotifier) NotifyAll(ctx context.Context, sub *types.Submission, kind string, actor *types.User) error {
	ev, err := newNotificationEvent(sub, kind, actor)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		observability.Current().IncNotification("redis", "error")
		return fmt.Errorf("redis publish: %w", err)
	}
	observability.Current().IncNotification("redis", "ok")
	return nil
}

func (n *redisNotifier) Close() error { return n.rdb.Close() }

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaNotifier struct {
	log *logger.Logger
	w   messageWriter
}

func NewKafkaNotifier(log *logger.Logger, w messageWriter) Notifier {
	return &kafkaNotifier{log: log.With("service", "KafkaNotifier"), w: w}
}

func (n *kafkaNotifier) NotifyAll(ctx context.Context, sub *types.Submission, kind string, actor *types.User) error {
	ev, err := newNotificationEvent(sub, kind, actor)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	// Keyed by submission so one submission's events stay ordered.
	if err := n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.SubmissionKey),
		Value: raw,
		Time:  ev.At,
	}); err != nil {
		observability.Current().IncNotification("kafka", "error")
		return fmt.Errorf("kafka write: %w", err)
	}
	observability.Current().IncNotification("kafka", "ok")
	return nil
}

func (n *kafkaNotifier) Close() error { return n.w.Close() }
