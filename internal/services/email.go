package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/logger"
	"github.com/openattest/certgen-backend/internal/platform/sendgrid"
)

// EmailService delivers issued certificates to recipients. It satisfies
// the batch controller's Mailer.
type EmailService interface {
	SendCertificate(ctx context.Context, toEmail string, cert *domain.GeneratedCertificate, artifact []byte) error
}

type emailService struct {
	log           *logger.Logger
	client        sendgrid.Client
	publicBaseURL string
}

func NewEmailService(log *logger.Logger, client sendgrid.Client, publicBaseURL string) EmailService {
	return &emailService{
		log:           log.With("service", "EmailService"),
		client:        client,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *emailService) SendCertificate(ctx context.Context, toEmail string, cert *domain.GeneratedCertificate, artifact []byte) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("recipient email required")
	}
	if cert == nil {
		return fmt.Errorf("certificate required")
	}

	verifyURL := fmt.Sprintf("%s/verify/%s", s.publicBaseURL, cert.ID)

	req := sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: toEmail, Name: cert.RecipientName}},
		Subject: fmt.Sprintf("Your certificate: %s", cert.Title),
		Text: fmt.Sprintf(
			"Hello %s,\n\nYour certificate %q issued by %s is attached.\n\nAnyone can verify it at %s\n",
			cert.RecipientName, cert.Title, cert.IssuerName, verifyURL,
		),
		HTML: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your certificate <strong>%s</strong> issued by %s is attached.</p><p>Anyone can verify it at <a href=%q>%s</a>.</p>",
			cert.RecipientName, cert.Title, cert.IssuerName, verifyURL, verifyURL,
		),
		Categories: []string{"certificate-delivery"},
	}
	if len(artifact) > 0 {
		req.Attachments = []sendgrid.Attachment{{
			Filename: fmt.Sprintf("certificate-%s.png", cert.ID),
			MIMEType: "image/png",
			Content:  artifact,
		}}
	}

	res, err := s.client.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("send certificate email: %w", err)
	}
	s.log.Debug("Certificate email accepted",
		"certificateID", cert.ID,
		"status", res.StatusCode,
		"messageID", res.MessageID,
	)
	return nil
}
