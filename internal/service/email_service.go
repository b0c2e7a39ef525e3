package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"planwise/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. An empty fromEmail returns a
// disabled service whose sends are no-ops.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service: region=%s from=%s base=%s", awsRegion, fromEmail, appBaseURL)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

const emailLayout = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2f855a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2f855a; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>%s</h1></div>
		<div class="content">%s</div>
		<div class="footer"><p>This is an automated email from Planwise. Please do not reply.</p></div>
	</div>
</body>
</html>
`

// SendWelcomeEmail greets a newly registered user
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, username string) error {
	if !s.IsEnabled() {
		if s != nil && s.debug {
			log.Printf("[DEBUG] Skipping welcome email to %s (service disabled)", toEmail)
		}
		return nil
	}

	subject := "Welcome to Planwise!"
	body := fmt.Sprintf(`<p>Hi %s,</p>
			<p>Your account is ready. Create your first planning, add a few tasks for today and start building a streak.</p>
			<p style="text-align: center;"><a href="%s" class="button">Open Planwise</a></p>`,
		html.EscapeString(username), s.appBaseURL)
	text := fmt.Sprintf("Hi %s,\n\nYour account is ready. Create your first planning, add a few tasks for today and start building a streak.\n\nOpen Planwise: %s\n",
		username, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, fmt.Sprintf(emailLayout, "Welcome to Planwise!", body), text)
}

// SendAchievementEmail tells a user about newly unlocked badges
func (s *EmailService) SendAchievementEmail(ctx context.Context, toEmail, username string, unlocked []models.Achievement) error {
	if !s.IsEnabled() || len(unlocked) == 0 {
		return nil
	}

	subject := fmt.Sprintf("You unlocked %s!", unlocked[0].BadgeName)
	if len(unlocked) > 1 {
		subject = fmt.Sprintf("You unlocked %d new badges!", len(unlocked))
	}

	var items, lines strings.Builder
	for _, a := range unlocked {
		fmt.Fprintf(&items, "<li><strong>%s</strong>: %s</li>", html.EscapeString(a.BadgeName), html.EscapeString(a.BadgeDescription))
		fmt.Fprintf(&lines, "- %s: %s\n", a.BadgeName, a.BadgeDescription)
	}

	body := fmt.Sprintf(`<p>Congratulations %s!</p>
			<ul>%s</ul>
			<p style="text-align: center;"><a href="%s/achievements" class="button">See your badges</a></p>`,
		html.EscapeString(username), items.String(), s.appBaseURL)
	text := fmt.Sprintf("Congratulations %s!\n\n%s\nSee your badges: %s/achievements\n", username, lines.String(), s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, fmt.Sprintf(emailLayout, "New achievement", body), text)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
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
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message id: %s", *result.MessageId)
	}
	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
