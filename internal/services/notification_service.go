package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/redis/go-redis/v9"
)

const emailQueueKey = "saasbase:notifications:email"

// NotificationService decides what to notify; delivery belongs to an external
// worker draining the queue. The membership service treats every call here as
// fire-and-forget.
type NotificationService interface {
	NotifyInvited(ctx context.Context, email, tenantName, replyTo string) error
	SendEmail(ctx context.Context, recipient, subject, body, replyTo string) error
}

type emailMessage struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ReplyTo   string    `json:"reply_to,omitempty"`
	QueuedAt  time.Time `json:"queued_at"`
}

type notificationService struct {
	redisClient *redis.Client
	inviteSubj  string
	inviteBodyT *template.Template
}

func NewNotificationService(redisAddr, redisPassword string, redisDB int) NotificationService {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	inviteBody := template.Must(template.New("invite").Parse(
		"You have been invited to join {{.TenantName}}. Sign in or create an account with this address to accept the invitation.\n"))

	return &notificationService{
		redisClient: redisClient,
		inviteSubj:  "You've been invited to %s",
		inviteBodyT: inviteBody,
	}
}

func (s *notificationService) NotifyInvited(ctx context.Context, email, tenantName, replyTo string) error {
	var body bytes.Buffer
	if err := s.inviteBodyT.Execute(&body, map[string]string{"TenantName": tenantName}); err != nil {
		return fmt.Errorf("failed to render invite notification: %w", err)
	}
	return s.SendEmail(ctx, email, fmt.Sprintf(s.inviteSubj, tenantName), body.String(), replyTo)
}

func (s *notificationService) SendEmail(ctx context.Context, recipient, subject, body, replyTo string) error {
	msg := emailMessage{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		ReplyTo:   replyTo,
		QueuedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal email message: %w", err)
	}
	if err := s.redisClient.LPush(ctx, emailQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}
