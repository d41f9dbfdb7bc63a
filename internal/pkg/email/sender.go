package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSender delivers mail over SMTP via gomail.
type SMTPSender struct {
	config    Config
	templates *TemplateManager
	dialer    *gomail.Dialer
}

func NewSMTPSender(config Config) (Sender, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}

	tm, err := NewTemplateManager(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}

	return &SMTPSender{
		config:    config,
		templates: tm,
		dialer:    gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.Username, config.Password),
	}, nil
}

// Send delivers one message.
func (s *SMTPSender) Send(email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)

	if email.Body != "" {
		m.SetBody("text/plain", email.Body)
		if email.HTMLBody != "" {
			m.AddAlternative("text/html", email.HTMLBody)
		}
	} else {
		m.SetBody("text/html", email.HTMLBody)
	}

	return s.dialer.DialAndSend(m)
}

// SendTemplate renders the named template and sends the result.
func (s *SMTPSender) SendTemplate(to []string, subject, templateName string, data TemplateData) error {
	if data.Subject == "" {
		data.Subject = subject
	}
	if data.SupportEmail == "" {
		data.SupportEmail = s.config.FromEmail
	}

	htmlBody, err := s.templates.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return s.Send(&Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

func (s *SMTPSender) SendWelcome(to, name, role string) error {
	return s.SendTemplate([]string{to}, "Welcome to TradeBoard", "welcome", TemplateData{
		UserName:   name,
		ActionURL:  s.config.BaseURL,
		ActionText: "Open your dashboard",
	})
}

func (s *SMTPSender) SendApplicationConfirmation(to, name, jobTitle, company string) error {
	return s.SendTemplate([]string{to}, "Application submitted", "application_confirmation", TemplateData{
		UserName:    name,
		JobTitle:    jobTitle,
		CompanyName: company,
	})
}

func (s *SMTPSender) SendEmployerAlert(to, jobTitle, applicantName string) error {
	return s.SendTemplate([]string{to}, "New application received", "employer_alert", TemplateData{
		UserName:   applicantName,
		JobTitle:   jobTitle,
		ActionURL:  s.config.BaseURL + "/employer/applications",
		ActionText: "Review applications",
	})
}

func (s *SMTPSender) SendApplicationRejected(to, name, jobTitle, company string) error {
	return s.SendTemplate([]string{to}, "Update on your application", "application_rejected", TemplateData{
		UserName:    name,
		JobTitle:    jobTitle,
		CompanyName: company,
	})
}

func (s *SMTPSender) SendPasswordReset(to, token string) error {
	return s.SendTemplate([]string{to}, "Reset your password", "password_reset", TemplateData{
		ActionURL:  fmt.Sprintf("%s/reset-password?token=%s", s.config.BaseURL, token),
		ActionText: "Choose a new password",
	})
}

func (s *SMTPSender) SendExpirationWarning(to, jobTitle string, daysLeft int) error {
	return s.SendTemplate([]string{to}, "Your job posting is about to expire", "expiration_warning", TemplateData{
		JobTitle:   jobTitle,
		DaysLeft:   daysLeft,
		ActionURL:  s.config.BaseURL + "/employer/jobs",
		ActionText: "Renew or upgrade",
	})
}
