package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/advanced-security/policy-as-code/pkg/checks"
	"github.com/advanced-security/policy-as-code/pkg/ui"
)

// ConsoleReporter writes human-readable results to a terminal, emitting
// GitHub Actions workflow commands (::group::, ::error::, ::warning::)
// when running inside a workflow so annotations land on the run.
type ConsoleReporter struct {
	w       io.Writer
	actions bool

	// Display includes each individual decision, not just the counts.
	Display bool
}

// NewConsoleReporter builds a reporter for w. Actions mode is detected
// from the GITHUB_ACTIONS environment variable.
func NewConsoleReporter(w io.Writer, display bool) *ConsoleReporter {
	return &ConsoleReporter{
		w:       w,
		actions: os.Getenv("GITHUB_ACTIONS") == "true",
		Display: display,
	}
}

// Report renders the full run: one group per technology with its
// counts, then the aggregate violation total.
func (c *ConsoleReporter) Report(report *Report) {
	for _, result := range report.Results {
		c.group(result.Name + " Results")

		if result.Err != "" {
			c.errorLine(fmt.Sprintf("%s check failed :: %s", result.Name, result.Err))
			c.endGroup()
			continue
		}

		c.states(result)
		fmt.Fprintf(c.w, "%s violations :: %d\n", result.Name, result.Violations())
		c.endGroup()
	}

	total := report.TotalViolations()
	if total == 0 {
		fmt.Fprintln(c.w, ui.Render(ui.SuccessStyle, "Acceptable risk and no threshold reached."))
		return
	}
	fmt.Fprintf(c.w, "Total unacceptable alerts :: %d\n", total)
}

// states prints the per-bucket counts and, in display mode, every
// decision line.
func (c *ConsoleReporter) states(result CheckResult) {
	state := result.State

	for _, d := range state.Criticals {
		c.errorLine(decisionLine(result.Name, d))
	}
	if c.Display {
		for _, d := range state.Errors {
			c.errorLine(decisionLine(result.Name, d))
		}
		for _, d := range state.Warnings {
			c.warningLine(decisionLine(result.Name, d))
		}
		for _, d := range state.Ignored {
			fmt.Fprintln(c.w, ui.Render(ui.MutedStyle, "ignored :: "+d.Message))
		}
	}
}

func decisionLine(name string, d checks.Decision) string {
	return fmt.Sprintf("%s Alert :: %s (%s)", name, d.Message, d.Trigger)
}

func (c *ConsoleReporter) group(title string) {
	if c.actions {
		fmt.Fprintf(c.w, "::group::%s\n", title)
		return
	}
	fmt.Fprintln(c.w, ui.Render(ui.TitleStyle, title))
}

func (c *ConsoleReporter) endGroup() {
	if c.actions {
		fmt.Fprintln(c.w, "::endgroup::")
	}
}

func (c *ConsoleReporter) errorLine(msg string) {
	if c.actions {
		fmt.Fprintf(c.w, "::error::%s\n", escapeCommand(msg))
		return
	}
	fmt.Fprintln(c.w, ui.Render(ui.ErrorStyle, msg))
}

func (c *ConsoleReporter) warningLine(msg string) {
	if c.actions {
		fmt.Fprintf(c.w, "::warning::%s\n", escapeCommand(msg))
		return
	}
	fmt.Fprintln(c.w, ui.Render(ui.WarningStyle, msg))
}

// escapeCommand escapes workflow command data per the Actions runner
// rules so message content cannot inject commands.
func escapeCommand(msg string) string {
	replacer := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	return replacer.Replace(msg)
}
