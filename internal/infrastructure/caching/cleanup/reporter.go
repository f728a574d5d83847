// Package cleanup provides the session expiry worker and its console report
package cleanup

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	cyan    = "\033[38;2;86;182;194m"  // One Dark Cyan: #56B6C2
	dimCyan = "\033[38;2;47;91;102m"   // Dim Cyan: #2F5B66
	grey    = "\033[38;2;110;118;129m" // Brighter Grey: #6E7681
	dimGrey = "\033[38;2;75;82;99m"    // Darker Grey: #4B5263
	success = "\033[38;2;62;130;144m"  // Dim Cyan: #3E8290
	warning = "\033[38;2;229;192;123m" // One Dark Yellow: #E5C07B
	white   = "\033[38;2;171;178;191m" // One Dark Foreground: #ABB2BF
	purple  = "\033[38;2;198;120;221m" // One Dark Purple: #C678DD
	reset   = "\033[0m"
	bold    = "\033[1m"
)

// Reporter prints the verbose sweep report.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) LogStage(message string, args ...any) {
	fmt.Fprintf(r.out, "%s%s✦ %s%s%s\n", success, bold, grey, fmt.Sprintf(message, args...), reset)
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	fmt.Fprintf(r.out, "%s%s✦ %s%s%s\n", success, bold, white, fmt.Sprintf(message, args...), reset)
}

func (r *Reporter) LogWarning(message string, args ...any) {
	fmt.Fprintf(r.out, "%s%s⚠ WARNING: %s%s%s\n", bold, warning, grey, fmt.Sprintf(message, args...), reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	fmt.Fprintf(r.out, "%s▶ %s%s%s\n", dimGrey, grey, fmt.Sprintf(message, args...), reset)
}

// SessionReport summarises the store after a sweep.
func (r *Reporter) SessionReport(active, expired, capacity int, now time.Time) string {
	var report strings.Builder
	fmt.Fprintf(&report, "%s%s▓ %s | Editor sessions%s\n", bold, dimCyan, now.UTC().Format("2006-01-02 15:04:05 MST"), reset)

	item := func(label string, count int) string {
		if count > 0 {
			return fmt.Sprintf(" %s%s:%s%d", purple, label, white, count)
		}
		return fmt.Sprintf(" %s%s:%s--", dimGrey, label, dimGrey)
	}

	report.WriteString(cyan + "✦ sessions:" + reset)
	report.WriteString(item("active", active))
	report.WriteString(item("expired", expired))
	if capacity > 0 {
		report.WriteString(item("capacity", capacity))
	}
	report.WriteString("\n")
	return report.String()
}
