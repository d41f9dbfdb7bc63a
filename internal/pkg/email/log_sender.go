package email

import (
	"tradeboard_backend/internal/logger"
)

// LogSender stands in when SMTP is not configured: every send is logged
// instead of delivered, so local and test deployments degrade gracefully.
type LogSender struct{}

func NewLogSender() Sender {
	return &LogSender{}
}

func (s *LogSender) Send(email *Email) error {
	logger.Info("email suppressed (smtp not configured)",
		"to", email.To, "subject", email.Subject)
	return nil
}

func (s *LogSender) SendTemplate(to []string, subject, templateName string, data TemplateData) error {
	logger.Info("email suppressed (smtp not configured)",
		"to", to, "subject", subject, "template", templateName)
	return nil
}

func (s *LogSender) SendWelcome(to, name, role string) error {
	return s.SendTemplate([]string{to}, "Welcome to TradeBoard", "welcome", TemplateData{UserName: name})
}

func (s *LogSender) SendApplicationConfirmation(to, name, jobTitle, company string) error {
	return s.SendTemplate([]string{to}, "Application submitted", "application_confirmation",
		TemplateData{UserName: name, JobTitle: jobTitle})
}

func (s *LogSender) SendEmployerAlert(to, jobTitle, applicantName string) error {
	return s.SendTemplate([]string{to}, "New application received", "employer_alert",
		TemplateData{UserName: applicantName, JobTitle: jobTitle})
}

func (s *LogSender) SendApplicationRejected(to, name, jobTitle, company string) error {
	return s.SendTemplate([]string{to}, "Update on your application", "application_rejected",
		TemplateData{UserName: name, JobTitle: jobTitle})
}

func (s *LogSender) SendPasswordReset(to, token string) error {
	return s.SendTemplate([]string{to}, "Reset your password", "password_reset", TemplateData{})
}

func (s *LogSender) SendExpirationWarning(to, jobTitle string, daysLeft int) error {
	return s.SendTemplate([]string{to}, "Your job posting is about to expire", "expiration_warning",
		TemplateData{JobTitle: jobTitle, DaysLeft: daysLeft})
}
