package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// DefaultSubmissionSubject is the broker subject judged submissions are sent to.
const DefaultSubmissionSubject = "submission.judged"

// SubmissionJudgedEvent announces a recorded submission verdict.
type SubmissionJudgedEvent struct {
	Source       string    `json:"source"`
	SubmissionID uint      `json:"submission_id"`
	ProblemID    uint      `json:"problem_id"`
	UserID       uint      `json:"user_id"`
	Language     string    `json:"language"`
	Status       string    `json:"status"`
	Accepted     bool      `json:"accepted"`
	PassedCount  int       `json:"passed_count"`
	TotalCount   int       `json:"total_count"`
	JudgedAt     time.Time `json:"judged_at"`
}

// SubmissionEventPublisher fans judged submissions out to other services.
type SubmissionEventPublisher interface {
	PublishJudged(ctx context.Context, event SubmissionJudgedEvent) error
}

type brokerEventPublisher struct {
	nats    *nats.Conn
	redis   *redis.Client
	subject string
	nodeID  string
}

// NewSubmissionEventPublisher publishes to NATS and/or a Redis channel,
// whichever is configured. With neither it discards events.
func NewSubmissionEventPublisher(natsConn *nats.Conn, redisClient *redis.Client, subject string) SubmissionEventPublisher {
	if subject == "" {
		subject = DefaultSubmissionSubject
	}
	return &brokerEventPublisher{
		nats:    natsConn,
		redis:   redisClient,
		subject: subject,
		nodeID:  uuid.NewString(),
	}
}

func (p *brokerEventPublisher) PublishJudged(ctx context.Context, event SubmissionJudgedEvent) error {
	event.Source = p.nodeID
	if event.JudgedAt.IsZero() {
		event.JudgedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.nats != nil {
		if err := p.nats.Publish(p.subject, payload); err != nil {
			return err
		}
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.subject, payload).Err(); err != nil {
			return err
		}
	}

	return nil
}
