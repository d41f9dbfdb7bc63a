package email

import "fmt"

// Config holds SMTP connection settings.
type Config struct {
	SMTPHost     string
	SMTPPort     int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	TemplatePath string
	BaseURL      string
}

// Validate checks the fields a real SMTP sender cannot work without.
func (c Config) Validate() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("smtp host is required")
	}
	if c.SMTPPort == 0 {
		return fmt.Errorf("smtp port is required")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// Configured reports whether enough settings are present to send for real.
// When false, the application falls back to the log-only sender.
func (c Config) Configured() bool {
	return c.SMTPHost != "" && c.FromEmail != ""
}
