package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSummary(t *testing.T) {
	body, err := RenderSummary(sampleReport())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, "# Policy as Code"))
	assert.Contains(t, body, "#### Policy :: production")
	assert.Contains(t, body, "## Code Scanning Results")
	assert.Contains(t, body, ":x: 2 Code Scanning violations")
	assert.Contains(t, body, ":warning: 1 Code Scanning warning")
	assert.Contains(t, body, "| SQL Injection (high) | severity |")
	assert.Contains(t, body, ":x: 1 Secret Scanning violation")
	assert.Contains(t, body, ":x: Supply Chain check failed")
	assert.Contains(t, body, "_api unavailable_")
}

func TestRenderSummaryCleanRun(t *testing.T) {
	report := NewReport("octo/demo", "")
	report.Add("Code Scanning", nil)

	body, err := RenderSummary(report)
	require.NoError(t, err)

	assert.Contains(t, body, ":white_check_mark: 0 Code Scanning violations")
	assert.NotContains(t, body, "#### Policy ::")
	assert.NotContains(t, body, "<details>")
}

func TestWriteJobSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	t.Setenv("GITHUB_STEP_SUMMARY", path)

	require.NoError(t, WriteJobSummary(sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Policy as Code")
}

func TestWriteJobSummaryOutsideActions(t *testing.T) {
	t.Setenv("GITHUB_STEP_SUMMARY", "")
	require.NoError(t, WriteJobSummary(sampleReport()))
}

func TestRenderPRComment(t *testing.T) {
	body, err := RenderPRComment(sampleReport())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, CommentMarker))
	assert.Contains(t, body, "# Policy as Code")
}
