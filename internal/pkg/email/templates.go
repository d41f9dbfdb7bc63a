package email

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
)

// TemplateManager loads and renders the HTML bodies. Templates are read
// from TemplatePath when present; otherwise the built-in fallbacks below
// are used so a bare deployment still sends readable mail.
type TemplateManager struct {
	templates map[string]*template.Template
	config    Config
}

var templateNames = []string{
	"welcome",
	"application_confirmation",
	"employer_alert",
	"application_rejected",
	"password_reset",
	"expiration_warning",
	"notification",
}

func NewTemplateManager(config Config) (*TemplateManager, error) {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
		config:    config,
	}

	for _, name := range templateNames {
		tpl, err := tm.loadTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", name, err)
		}
		tm.templates[name] = tpl
	}

	return tm, nil
}

func (tm *TemplateManager) loadTemplate(name string) (*template.Template, error) {
	if tm.config.TemplatePath != "" {
		contentPath := filepath.Join(tm.config.TemplatePath, name+".html")
		if tpl, err := template.ParseFiles(contentPath); err == nil {
			return tpl, nil
		}
	}
	return tm.builtinTemplate(name)
}

// Render executes the named template with the given data.
func (tm *TemplateManager) Render(name string, data TemplateData) (string, error) {
	tpl, ok := tm.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template: %s", name)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (tm *TemplateManager) builtinTemplate(name string) (*template.Template, error) {
	body, ok := builtinBodies[name]
	if !ok {
		return nil, fmt.Errorf("no builtin template for %s", name)
	}
	return template.New(name).Parse(builtinBase + body + builtinFooter)
}

const builtinBase = `<html><body style="font-family:Arial,sans-serif;color:#222;">
<h2>{{.Subject}}</h2>`

const builtinFooter = `<p style="color:#888;font-size:12px;">TradeBoard — jobs in the technical trades.
{{if .SupportEmail}}Questions? Write to {{.SupportEmail}}.{{end}}</p>
</body></html>`

var builtinBodies = map[string]string{
	"welcome": `<p>Hi {{.UserName}},</p>
<p>Welcome to TradeBoard. Your account is ready.</p>
{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>{{end}}`,

	"application_confirmation": `<p>Hi {{.UserName}},</p>
<p>Your application for <b>{{.JobTitle}}</b> at {{.CompanyName}} was submitted.
The employer will be in touch if your profile is a match.</p>`,

	"employer_alert": `<p>Good news — <b>{{.UserName}}</b> just applied to your posting
<b>{{.JobTitle}}</b>.</p>
{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>{{end}}`,

	"application_rejected": `<p>Hi {{.UserName}},</p>
<p>Thanks for applying to <b>{{.JobTitle}}</b> at {{.CompanyName}}.
The employer has decided to move forward with other candidates this time.</p>`,

	"password_reset": `<p>A password reset was requested for your account.</p>
{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>{{end}}
<p>If this wasn't you, ignore this email.</p>`,

	"expiration_warning": `<p>Your job posting <b>{{.JobTitle}}</b> expires in
<b>{{.DaysLeft}}</b> day{{if ne .DaysLeft 1}}s{{end}}.</p>
{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>{{end}}`,

	"notification": `<p>{{.Message}}</p>`,
}
