package events

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	awsclient "mergington-activities/internal/common/aws"
	"mergington-activities/internal/models"
)

const EmailSinkName = "ses-email"

// EmailNotifier mails the student a confirmation for each roster change.
type EmailNotifier struct {
	client    awsclient.SESAPI
	fromEmail string
}

func NewEmailNotifier(client awsclient.SESAPI, fromEmail string) *EmailNotifier {
	return &EmailNotifier{client: client, fromEmail: fromEmail}
}

func (n *EmailNotifier) Name() string { return EmailSinkName }

func (n *EmailNotifier) Publish(ctx context.Context, event models.RosterEvent) error {
	subject, body := renderEmail(event)
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{event.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	return nil
}

func renderEmail(event models.RosterEvent) (subject, body string) {
	when := event.OccurredAt.Format("Monday, January 2 2006 at 15:04 MST")
	switch event.Type {
	case models.RosterEventUnregistered:
		subject = fmt.Sprintf("You have left %s", event.Activity)
		body = fmt.Sprintf("Hello,\n\n%s has been removed from %s on %s.\n\nMergington High School Activities",
			event.Email, event.Activity, when)
	default:
		subject = fmt.Sprintf("You are signed up for %s", event.Activity)
		body = fmt.Sprintf("Hello,\n\n%s is now signed up for %s as of %s.\n\nMergington High School Activities",
			event.Email, event.Activity, when)
	}
	return subject, body
}
