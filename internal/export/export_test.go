// ABOUTME: Tests for the HTML workflow export
// ABOUTME: Verifies markdown rendering, recording links and escaping

package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampkit/ramp/internal/api"
)

func TestWriteHTML(t *testing.T) {
	agent := &api.Agent{
		Name:        "Sales Onboarding",
		Role:        "Account Executive",
		Description: "Everything a *new* account executive needs",
		Steps: []api.OnboardingStep{
			{Title: "Set up CRM", Description: "Log in and **verify** your account"},
			{Title: "Import leads", Description: "", RecordingURL: "http://x/recordings/f1"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, agent))
	html := buf.String()

	assert.Contains(t, html, "<title>Sales Onboarding onboarding</title>")
	assert.Contains(t, html, "Account Executive")

	// Agent description renders as markdown under the header
	assert.Contains(t, html, `<div class="description">`)
	assert.Contains(t, html, "<em>new</em> account executive")

	// Markdown in descriptions renders to HTML
	assert.Contains(t, html, "<strong>verify</strong>")

	// Recording link only on steps that have one
	assert.Contains(t, html, `href="http://x/recordings/f1"`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Watch the recording")))

	// Step numbering and count
	assert.Contains(t, html, "Set up CRM")
	assert.Contains(t, html, "2 steps")
}

func TestWriteHTML_EscapesTitles(t *testing.T) {
	agent := &api.Agent{
		Name: "A <script>alert(1)</script> program",
		Role: "QA",
		Steps: []api.OnboardingStep{
			{Title: "Step <b>one</b>", Description: "plain"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, agent))
	html := buf.String()

	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "Step <b>one</b>")
}

func TestWriteHTML_NoSteps(t *testing.T) {
	agent := &api.Agent{Name: "Empty", Role: "Any"}

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, agent))
	assert.Contains(t, buf.String(), "0 steps")

	// No description block for an agent without one
	assert.NotContains(t, buf.String(), `class="description"`)
}
