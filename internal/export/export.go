// ABOUTME: Renders an agent's onboarding workflow as a standalone HTML
// ABOUTME: page, converting step descriptions from markdown

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/rampkit/ramp/internal/api"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}} onboarding</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
header { border-bottom: 2px solid #e2e2e2; padding-bottom: 1rem; margin-bottom: 2rem; }
h1 { margin-bottom: 0.25rem; }
.role { color: #666; }
.description { margin-bottom: 2rem; }
.step { margin-bottom: 2rem; }
.step h2 { margin-bottom: 0.5rem; }
.step .index { color: #999; font-weight: normal; margin-right: 0.5rem; }
.recording a { font-size: 0.9rem; }
footer { border-top: 1px solid #e2e2e2; margin-top: 3rem; padding-top: 1rem; color: #999; font-size: 0.85rem; }
</style>
</head>
<body>
<header>
<h1>{{.Name}}</h1>
<p class="role">Onboarding for: {{.Role}}</p>
</header>
{{if .Description}}<div class="description">
{{.Description}}
</div>
{{end}}
{{range .Steps}}<section class="step">
<h2><span class="index">{{.Number}}.</span>{{.Title}}</h2>
{{.Description}}
{{if .RecordingURL}}<p class="recording"><a href="{{.RecordingURL}}">Watch the recording for this step</a></p>{{end}}
</section>
{{end}}<footer>{{.StepCount}} steps</footer>
</body>
</html>
`

type pageData struct {
	Name        string
	Role        string
	Description template.HTML
	Steps       []stepData
	StepCount   int
}

type stepData struct {
	Number       int
	Title        string
	Description  template.HTML
	RecordingURL string
}

// WriteHTML renders the agent's workflow to w as a self-contained HTML
// document. The agent description and step descriptions are treated as
// markdown.
func WriteHTML(w io.Writer, agent *api.Agent) error {
	desc, err := renderMarkdown(agent.Description)
	if err != nil {
		return fmt.Errorf("rendering agent description: %w", err)
	}
	data := pageData{
		Name:        agent.Name,
		Role:        agent.Role,
		Description: desc,
		StepCount:   len(agent.Steps),
	}
	for i, step := range agent.Steps {
		desc, err := renderMarkdown(step.Description)
		if err != nil {
			return fmt.Errorf("rendering step %d: %w", i+1, err)
		}
		data.Steps = append(data.Steps, stepData{
			Number:       i + 1,
			Title:        step.Title,
			Description:  desc,
			RecordingURL: step.RecordingURL,
		})
	}

	tmpl := template.Must(template.New("page").Parse(pageTemplate))
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering workflow page: %w", err)
	}
	return nil
}

// renderMarkdown converts one step description to HTML. Plain text
// comes back wrapped in a paragraph.
func renderMarkdown(md string) (template.HTML, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
