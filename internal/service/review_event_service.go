package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/observability"
)

const (
	reviewEventBufferSize = 16
	reviewMailTimeout     = 30 * time.Second
)

// ReviewEventPublisher announces review decisions.
type ReviewEventPublisher interface {
	Publish(ctx context.Context, event dto.ReviewEvent) error
}

// MailSender delivers HTML mail.
type MailSender interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// ReviewEventService fans review events out to local websocket subscribers, other API
// nodes (redis pub/sub and NATS) and the submitter's inbox.
type ReviewEventService interface {
	ReviewEventPublisher
	Subscribe(userID string) (<-chan dto.ReviewEvent, func())
	Start(ctx context.Context)
	// Shutdown waits for queued review mail until ctx is done.
	Shutdown(ctx context.Context) error
}

type reviewEventService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	mailer       MailSender
	mailWG       sync.WaitGroup
	logger       zerolog.Logger
	tracer       trace.Tracer
	hub          *reviewEventHub
	nodeID       string
}

type reviewEventEnvelope struct {
	Source string          `json:"source"`
	Event  dto.ReviewEvent `json:"event"`
	SentAt time.Time       `json:"sent_at"`
}

type reviewEventHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.ReviewEvent]struct{}
}

var reviewMailTemplate = template.Must(template.New("review").Parse(`<p>Hi {{.UserName}},</p>
<p>Your submission{{if .RelatedTitle}} for <strong>{{.RelatedTitle}}</strong>{{end}} was <strong>{{.Status}}</strong> by {{.TeacherName}}.</p>
{{if gt .PointsAwarded 0}}<p>You earned {{.PointsAwarded}} points.</p>{{end}}
{{if .TeacherComment}}<p>Comment: {{.TeacherComment}}</p>{{end}}`))

// NewReviewEventService constructs the event fan-out. Any of redis, nats and mailer may be nil.
func NewReviewEventService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, mailer MailSender, logger zerolog.Logger) ReviewEventService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":submission-reviews"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".submission-reviews"
	}

	return &reviewEventService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		mailer:       mailer,
		logger:       logger.With().Str("component", "review_event_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/review_events"),
		hub: &reviewEventHub{
			subscribers: make(map[string]map[chan dto.ReviewEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *reviewEventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		s.consumeNATS(ctx)
	}
}

// Publish delivers the event locally first, then to remote nodes. Mail is sent in the
// background; its failures are only logged. Remote failures are returned.
func (s *reviewEventService) Publish(ctx context.Context, event dto.ReviewEvent) error {
	ctx, span := s.tracer.Start(ctx, "review_events.publish", trace.WithAttributes(
		attribute.String("review.submission_id", event.SubmissionID),
		attribute.String("review.status", event.Status),
	))
	defer span.End()

	s.hub.broadcast(event.UserID, event)
	observability.ReviewEventsPublished().WithLabelValues("local").Inc()

	s.dispatchMail(event)

	if err := s.publishRemote(ctx, event); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *reviewEventService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.mailWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *reviewEventService) Subscribe(userID string) (<-chan dto.ReviewEvent, func()) {
	channel := make(chan dto.ReviewEvent, reviewEventBufferSize)

	s.hub.subscribe(userID, channel)
	observability.ReviewStreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.hub.unsubscribe(userID, channel)
			observability.ReviewStreamClients().Dec()
		})
	}

	return channel, cleanup
}

func (s *reviewEventService) publishRemote(ctx context.Context, event dto.ReviewEvent) error {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(reviewEventEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *reviewEventService) dispatchMail(event dto.ReviewEvent) {
	if s.mailer == nil || strings.TrimSpace(event.UserEmail) == "" {
		return
	}

	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), reviewMailTimeout)
		defer cancel()

		if err := s.sendMail(ctx, event); err != nil {
			s.logger.Warn().Err(err).
				Str("submission_id", event.SubmissionID).
				Str("user_id", event.UserID).
				Msg("failed to send review mail")
			return
		}
		observability.ReviewEventsPublished().WithLabelValues("mail").Inc()
	}()
}

func (s *reviewEventService) sendMail(ctx context.Context, event dto.ReviewEvent) error {
	var body bytes.Buffer
	if err := reviewMailTemplate.Execute(&body, event); err != nil {
		return err
	}

	subject := "Your submission was " + event.Status
	return s.mailer.Send(ctx, []string{event.UserEmail}, subject, body.String())
}

func (s *reviewEventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("review event redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload), "redis")
	}
}

func (s *reviewEventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data, "nats")
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats review subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain review nats subscription")
		}
	}()
}

// handleEnvelope rebroadcasts events published by other nodes. Events from this node were
// already delivered in Publish. When both transports are configured an event arrives twice;
// websocket clients key on submissionId.
func (s *reviewEventService) handleEnvelope(payload []byte, source string) {
	var envelope reviewEventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid review event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	observability.ReviewEventsPublished().WithLabelValues(source).Inc()
	s.hub.broadcast(envelope.Event.UserID, envelope.Event)
}

func (h *reviewEventHub) subscribe(userID string, ch chan dto.ReviewEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.subscribers[userID]; !exists {
		h.subscribers[userID] = make(map[chan dto.ReviewEvent]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
}

func (h *reviewEventHub) unsubscribe(userID string, ch chan dto.ReviewEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.subscribers[userID]; ok {
		if _, present := subscribers[ch]; present {
			delete(subscribers, ch)
			close(ch)
		}
		if len(subscribers) == 0 {
			delete(h.subscribers, userID)
		}
	}
}

// broadcast never blocks: a subscriber with a full buffer misses the event.
func (h *reviewEventHub) broadcast(userID string, event dto.ReviewEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}
