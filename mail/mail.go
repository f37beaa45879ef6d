// Package mail sends invitation emails through Amazon SES. Delivery is
// strictly best-effort: when SES is not configured the service is
// disabled and every send becomes a logged no-op, so a mail outage can
// never block creating an invitation.
package mail

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type Service struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewFromEnv builds the mailer from SES_FROM_EMAIL, SES_FROM_NAME and
// AWS_REGION. An empty from-address yields a disabled service.
func NewFromEnv(ctx context.Context) *Service {
	fromEmail := os.Getenv("SES_FROM_EMAIL")
	if fromEmail == "" {
		log.Println("Invitation email disabled: SES_FROM_EMAIL not configured")
		return &Service{enabled: false}
	}

	region := os.Getenv("AWS_REGION")
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Printf("Invitation email disabled: cannot load AWS config: %v", err)
		return &Service{enabled: false}
	}

	fromName := os.Getenv("SES_FROM_NAME")
	if fromName == "" {
		fromName = "Sirius Meetings"
	}

	log.Printf("Invitation email enabled: from=%s region=%s", fromEmail, region)
	return &Service{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}
}

func (s *Service) IsEnabled() bool {
	return s.enabled
}

// SendInvitation mails the single-use join link to an external invitee.
func (s *Service) SendInvitation(ctx context.Context, toEmail, meetingTitle, hostName, joinLink, message string) error {
	if !s.enabled {
		log.Printf("Skipping invitation email to %s (mailer disabled); link: %s", toEmail, joinLink)
		return nil
	}

	subject := fmt.Sprintf("%s invited you to \"%s\"", hostName, meetingTitle)
	body := fmt.Sprintf("%s has invited you to the meeting \"%s\".\n\n", hostName, meetingTitle)
	if message != "" {
		body += fmt.Sprintf("Message from the host:\n%s\n\n", message)
	}
	body += fmt.Sprintf("Join here: %s\n\nThis link is personal and can be used once.\n", joinLink)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send invitation email: %w", err)
	}
	return nil
}
