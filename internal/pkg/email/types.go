package email

// Email is one outbound message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData is the payload handed to the HTML templates.
type TemplateData struct {
	UserName     string
	Subject      string
	Message      string
	ActionURL    string
	ActionText   string
	JobTitle     string
	CompanyName  string
	DaysLeft     int
	SupportEmail string
}

// Sender delivers transactional email. Implementations must never be
// relied on for request correctness; callers queue sends and move on.
type Sender interface {
	Send(email *Email) error
	SendTemplate(to []string, subject, templateName string, data TemplateData) error

	SendWelcome(to, name, role string) error
	SendApplicationConfirmation(to, name, jobTitle, company string) error
	SendEmployerAlert(to, jobTitle, applicantName string) error
	SendApplicationRejected(to, name, jobTitle, company string) error
	SendPasswordReset(to, token string) error
	SendExpirationWarning(to, jobTitle string, daysLeft int) error
}
