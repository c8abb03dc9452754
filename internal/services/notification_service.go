package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

	"github.com/fleetlab/ota-server/internal/models"
	"github.com/fleetlab/ota-server/internal/templates"
)

// NotificationService emails operators about rollout lifecycle events via
// AWS SES. Sends are fire-and-forget: failures are logged, never propagated,
// since notifications must not block rollout transitions.
type NotificationService struct {
	client     *sesv2.Client
	fromEmail  string
	recipients []string
	templates  *templates.TemplateRenderer
	log        zerolog.Logger
}

// NotificationConfig holds configuration for the notification service
type NotificationConfig struct {
	// FromEmail is the address that will appear in the From field
	FromEmail string

	// Recipients receive every rollout event email
	Recipients []string

	// Region is the AWS region for SES (e.g. "us-east-1", "eu-west-1")
	Region string
}

// NewNotificationService creates a new notification service instance.
// AWS credentials come from the default provider chain (environment,
// shared config file, instance role).
func NewNotificationService(cfg *NotificationConfig, logger zerolog.Logger) (*NotificationService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notification config is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}
	if len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	renderer, err := templates.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize templates: %w", err)
	}

	return &NotificationService{
		client:     sesv2.NewFromConfig(awsCfg),
		fromEmail:  cfg.FromEmail,
		recipients: cfg.Recipients,
		templates:  renderer,
		log:        logger.With().Str("component", "notifier").Logger(),
	}, nil
}

// RolloutActivated emails operators that a rollout went active
func (s *NotificationService) RolloutActivated(ctx context.Context, rollout *models.Rollout) {
	subject := fmt.Sprintf("OTA rollout %q is now active", rollout.Name)
	s.sendRolloutEvent(ctx, "activated", subject, rollout)
}

// RolloutCompleted emails operators that a rollout finished
func (s *NotificationService) RolloutCompleted(ctx context.Context, rollout *models.Rollout) {
	subject := fmt.Sprintf("OTA rollout %q completed", rollout.Name)
	s.sendRolloutEvent(ctx, "completed", subject, rollout)
}

func (s *NotificationService) sendRolloutEvent(ctx context.Context, event, subject string, rollout *models.Rollout) {
	data := templates.RolloutEventData{
		Event:           event,
		RolloutName:     rollout.Name,
		FirmwareVersion: rollout.Firmware.Version,
		Stage:           rollout.Stage,
	}
	if rollout.TargetLabel != nil {
		data.TargetLabel = rollout.TargetLabel.Name
	}

	htmlBody, err := s.templates.RenderRolloutEventHTML(data)
	if err != nil {
		s.log.Error().Err(err).Str("rollout", rollout.Name).
			Msg("Failed to render HTML notification")
		return
	}
	textBody, err := s.templates.RenderRolloutEventText(data)
	if err != nil {
		s.log.Error().Err(err).Str("rollout", rollout.Name).
			Msg("Failed to render text notification")
		return
	}

	if err := s.sendEmail(ctx, subject, htmlBody, textBody); err != nil {
		s.log.Error().Err(err).Str("rollout", rollout.Name).
			Msg("Failed to send rollout notification")
		return
	}

	s.log.Info().Str("rollout", rollout.Name).Str("event", event).
		Msg("Sent rollout notification")
}

// sendEmail sends an email via AWS SES
func (s *NotificationService) sendEmail(ctx context.Context, subject, htmlBody, textBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: s.recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("SES SendEmail failed: %w", err)
	}

	if result.MessageId != nil {
		s.log.Debug().Str("message_id", *result.MessageId).Msg("SES accepted email")
	}

	return nil
}
