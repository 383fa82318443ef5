package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
)

// EmailData is the template input for every notification email.
type EmailData struct {
	RecipientName string
	Message       string
	Title         string
	Excerpt       string
	Link          string
}

const layoutTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2933;">
<p>Hi {{if .RecipientName}}{{.RecipientName}}{{else}}there{{end}},</p>
{{template "body" .}}
{{if .Link}}<p><a href="{{.Link}}">Open in TaskKollecta</a></p>{{end}}
<p style="font-size: 12px; color: #7b8794;">You can change which emails you receive in your notification settings.</p>
</body>
</html>`

var bodyTemplates = map[domain.PreferenceCategory]string{
	domain.CategoryAssignment: `<p>{{.Message}}</p>
{{if .Title}}<p><strong>{{.Title}}</strong></p>{{end}}`,

	domain.CategoryStatusChange: `<p>{{.Message}}</p>
{{if .Title}}<p>Task: <strong>{{.Title}}</strong></p>{{end}}`,

	domain.CategoryComment: `<p>{{.Message}}</p>
{{if .Excerpt}}<blockquote style="border-left: 3px solid #cbd2d9; padding-left: 8px;">{{.Excerpt}}</blockquote>{{end}}`,

	domain.CategoryMention: `<p>{{.Message}}</p>
{{if .Excerpt}}<blockquote style="border-left: 3px solid #cbd2d9; padding-left: 8px;">{{.Excerpt}}</blockquote>{{end}}`,

	domain.CategoryDueDate: `<p>{{.Message}}</p>
{{if .Title}}<p>Task: <strong>{{.Title}}</strong></p>{{end}}`,

	domain.CategoryProjectInvite: `<p>{{.Message}}</p>
{{if .Title}}<p>Project: <strong>{{.Title}}</strong></p>{{end}}`,
}

var subjects = map[domain.PreferenceCategory]string{
	domain.CategoryAssignment:    "You were assigned a task",
	domain.CategoryStatusChange:  "Task status changed",
	domain.CategoryComment:       "New comment on a task",
	domain.CategoryMention:       "You were mentioned in a comment",
	domain.CategoryDueDate:       "Task due date",
	domain.CategoryProjectInvite: "You were invited to a project",
}

// emailTemplates holds one parsed template per category.
type emailTemplates struct {
	byCategory map[domain.PreferenceCategory]*template.Template
}

func newEmailTemplates() (*emailTemplates, error) {
	layout, err := template.New("layout").Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email layout: %w", err)
	}

	set := &emailTemplates{byCategory: make(map[domain.PreferenceCategory]*template.Template, len(bodyTemplates))}
	for category, body := range bodyTemplates {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone email layout: %w", err)
		}
		if _, err := t.New("body").Parse(body); err != nil {
			return nil, fmt.Errorf("failed to parse %s email template: %w", category, err)
		}
		set.byCategory[category] = t
	}
	return set, nil
}

// render produces the HTML body for category.
func (s *emailTemplates) render(category domain.PreferenceCategory, data EmailData) (string, error) {
	t, ok := s.byCategory[category]
	if !ok {
		return "", fmt.Errorf("no email template for category %q", category)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to execute %s email template: %w", category, err)
	}
	return buf.String(), nil
}

// subjectFor returns the default subject line for category, suffixed with
// title when one is known.
func subjectFor(category domain.PreferenceCategory, title string) string {
	subject, ok := subjects[category]
	if !ok {
		subject = "TaskKollecta notification"
	}
	if title != "" {
		return subject + ": " + title
	}
	return subject
}
