package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"
)

type TemplateName string

const (
	TemplateVerificationApproved TemplateName = "verification_approved"
	TemplateVerificationRejected TemplateName = "verification_rejected"
	TemplateVerificationReminder TemplateName = "verification_reminder"
)

// Template holds the sources of a subject and both bodies, written in
// text/template syntax over a map of string values, e.g. {{.name}}. The HTML
// body is parsed with html/template and so escapes values by context.
type Template struct {
	Subject string
	HTML    string
	Text    string
}

type compiledTemplate struct {
	subject *template.Template
	html    *htmltemplate.Template
	text    *template.Template
}

type Templates struct {
	byName map[TemplateName]compiledTemplate
	// defaults are merged under the caller's data on every render
	defaults map[string]string
}

// DefaultTemplates returns the built-in verification templates. siteURL is
// exposed to templates as {{.site_url}}.
func DefaultTemplates(siteURL string) *Templates {
	t := &Templates{
		byName:   map[TemplateName]compiledTemplate{},
		defaults: map[string]string{"site_url": siteURL, "name": "there"},
	}
	builtin := map[TemplateName]Template{
		TemplateVerificationApproved: {
			Subject: "Verification Approved: your {{.entity_label}} is now verified",
			HTML: `<p>Hello {{.name}},</p>
<p>Good news. Your {{.entity_label}} verification ({{.document_type}}) has been approved and is now visible as verified on the marketplace.</p>
{{if .review_notes}}<p>Reviewer notes: {{.review_notes}}</p>
{{end}}<p><a href="{{.site_url}}">Open your dashboard</a></p>`,
			Text: "Hello {{.name}},\n\nYour {{.entity_label}} verification ({{.document_type}}) has been approved.\n{{if .review_notes}}Reviewer notes: {{.review_notes}}\n{{end}}\n{{.site_url}}\n",
		},
		TemplateVerificationRejected: {
			Subject: "Verification Rejected: action needed on your {{.entity_label}}",
			HTML: `<p>Hello {{.name}},</p>
<p>Your {{.entity_label}} verification ({{.document_type}}) was not approved.</p>
{{if .review_notes}}<p>Reviewer notes: {{.review_notes}}</p>
{{end}}<p>You can upload new documents from <a href="{{.site_url}}">your dashboard</a>.</p>`,
			Text: "Hello {{.name}},\n\nYour {{.entity_label}} verification ({{.document_type}}) was not approved.\n{{if .review_notes}}Reviewer notes: {{.review_notes}}\n{{end}}\nUpload new documents at {{.site_url}}\n",
		},
		TemplateVerificationReminder: {
			Subject: "Verification Pending: your {{.entity_label}} is still under review",
			HTML: `<p>Hello {{.name}},</p>
<p>Your {{.entity_label}} verification ({{.document_type}}) submitted on {{.submitted_at}} is still pending review. No action is needed yet; we will email you once a reviewer has decided.</p>
<p><a href="{{.site_url}}">Check status</a></p>`,
			Text: "Hello {{.name}},\n\nYour {{.entity_label}} verification ({{.document_type}}) submitted on {{.submitted_at}} is still pending review.\n{{.site_url}}\n",
		},
	}
	for name, src := range builtin {
		if err := t.Register(name, src); err != nil {
			panic(err)
		}
	}
	return t
}

// Register parses tmpl and adds or replaces it under name.
func (t *Templates) Register(name TemplateName, tmpl Template) error {
	var (
		c   compiledTemplate
		err error
	)
	if c.subject, err = template.New(string(name) + ".subject").Option("missingkey=zero").Parse(tmpl.Subject); err != nil {
		return fmt.Errorf("email template %q subject: %w", name, err)
	}
	if c.html, err = htmltemplate.New(string(name) + ".html").Option("missingkey=zero").Parse(tmpl.HTML); err != nil {
		return fmt.Errorf("email template %q html body: %w", name, err)
	}
	if c.text, err = template.New(string(name) + ".text").Option("missingkey=zero").Parse(tmpl.Text); err != nil {
		return fmt.Errorf("email template %q text body: %w", name, err)
	}
	t.byName[name] = c
	return nil
}

type executor interface {
	Execute(w io.Writer, data interface{}) error
}

// Render fills the named template. The returned Message has no recipient.
func (t *Templates) Render(name TemplateName, data map[string]string) (Message, error) {
	c, ok := t.byName[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", name)
	}

	values := make(map[string]string, len(t.defaults)+len(data))
	for k, v := range t.defaults {
		values[k] = v
	}
	for k, v := range data {
		if strings.TrimSpace(v) != "" {
			values[k] = v
		}
	}

	var msg Message
	parts := []struct {
		tmpl executor
		out  *string
	}{
		{c.subject, &msg.Subject},
		{c.html, &msg.HTML},
		{c.text, &msg.Text},
	}
	for _, p := range parts {
		var buf bytes.Buffer
		if err := p.tmpl.Execute(&buf, values); err != nil {
			return Message{}, fmt.Errorf("render email template %q: %w", name, err)
		}
		*p.out = buf.String()
	}
	return msg, nil
}
