package templates

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	text_template "text/template"
)

//go:embed emails/*.html
var htmlTemplates embed.FS

//go:embed emails/*.txt
var textTemplates embed.FS

// TemplateRenderer manages loading and rendering of email templates
type TemplateRenderer struct {
	htmlTemplates *template.Template
	textTemplates *text_template.Template
}

// RolloutEventData holds data for rollout event email templates
type RolloutEventData struct {
	// Event is the lifecycle event name ("activated", "completed")
	Event           string
	RolloutName     string
	FirmwareVersion string
	Stage           string

	// TargetLabel is empty for rollouts targeting every device
	TargetLabel string
}

// NewTemplateRenderer creates a new template renderer
func NewTemplateRenderer() (*TemplateRenderer, error) {
	htmlTmpl, err := template.ParseFS(htmlTemplates, "emails/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load HTML templates: %w", err)
	}

	textTmpl, err := text_template.ParseFS(textTemplates, "emails/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to load text templates: %w", err)
	}

	return &TemplateRenderer{
		htmlTemplates: htmlTmpl,
		textTemplates: textTmpl,
	}, nil
}

// RenderRolloutEventHTML renders the HTML email for a rollout event
func (t *TemplateRenderer) RenderRolloutEventHTML(data RolloutEventData) (string, error) {
	var buf strings.Builder
	if err := t.htmlTemplates.ExecuteTemplate(&buf, "rollout_event.html", data); err != nil {
		return "", fmt.Errorf("failed to render HTML template: %w", err)
	}
	return buf.String(), nil
}

// RenderRolloutEventText renders the text email for a rollout event
func (t *TemplateRenderer) RenderRolloutEventText(data RolloutEventData) (string, error) {
	var buf strings.Builder
	if err := t.textTemplates.ExecuteTemplate(&buf, "rollout_event.txt", data); err != nil {
		return "", fmt.Errorf("failed to render text template: %w", err)
	}
	return buf.String(), nil
}
