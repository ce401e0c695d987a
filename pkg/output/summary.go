package output

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// summaryTemplate renders the markdown job summary. The same body is
// reused for the pull request comment.
const summaryTemplate = `# Policy as Code
{{- if .PolicyName }}

#### Policy :: {{ .PolicyName }}
{{- end }}
{{- range .Results }}

## {{ .Name }} Results

{{ if .Err -}}
:x: {{ .Name }} check failed

_{{ .Err }}_
{{- else if eq .Violations 0 -}}
:white_check_mark: 0 {{ .Name }} violations
{{- else -}}
:x: {{ .Violations }} {{ .Name }} violation{{ if gt .Violations 1 }}s{{ end }}
{{- end }}
{{- if .State }}
{{- if .State.Warnings }}
:warning: {{ len .State.Warnings }} {{ .Name }} warning{{ if gt (len .State.Warnings) 1 }}s{{ end }}
{{- end }}
{{- $violations := concat .State.Criticals .State.Errors }}
{{- if $violations }}

<details><summary><i>{{ .Name }} violations</i></summary>

| Alert | Trigger |
| :---- | :------ |
{{- range $violations }}
| {{ .Message }} | {{ .Trigger }} |
{{- end }}

</details>
{{- end }}
{{- end }}
{{- end }}
`

// CommentMarker identifies the bot comment so reruns update it instead
// of stacking new ones.
const CommentMarker = "<!-- policy-as-code-report -->"

var summaryTmpl = template.Must(
	template.New("summary").Funcs(sprig.FuncMap()).Parse(summaryTemplate))

// RenderSummary produces the markdown job summary for a report.
func RenderSummary(report *Report) (string, error) {
	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("rendering summary: %w", err)
	}
	return buf.String(), nil
}

// WriteJobSummary appends the rendered summary to the workflow's step
// summary file. Outside Actions (no GITHUB_STEP_SUMMARY) it is a no-op.
func WriteJobSummary(report *Report) error {
	path := os.Getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		return nil
	}

	body, err := RenderSummary(report)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening job summary: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(body)
	return err
}

// RenderPRComment produces the pull request comment body: the summary
// plus a hidden marker used to find and update the previous comment.
func RenderPRComment(report *Report) (string, error) {
	body, err := RenderSummary(report)
	if err != nil {
		return "", err
	}
	return CommentMarker + "\n" + body, nil
}
