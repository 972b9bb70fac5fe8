package replay

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/tabula/internal/table"
)

// PrintOptions controls Print output.
type PrintOptions struct {
	// Diff prints a line diff against the previous snapshot instead of the
	// full table.
	Diff bool
}

type printer struct {
	w      io.Writer
	pass   lipgloss.Style
	fail   lipgloss.Style
	muted  lipgloss.Style
	add    lipgloss.Style
	remove lipgloss.Style
	err    error
}

func newPrinter(w io.Writer) *printer {
	// The renderer picks the color profile of w, so piped output stays plain.
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:      w,
		pass:   r.NewStyle().Foreground(lipgloss.Color("#73F59F")),
		fail:   r.NewStyle().Foreground(lipgloss.Color("#FF8787")).Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#696969")),
		add:    r.NewStyle().Foreground(lipgloss.Color("#73F59F")),
		remove: r.NewStyle().Foreground(lipgloss.Color("#FF8787")),
	}
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Print writes a human readable report to w.
func Print(w io.Writer, report Report, opts PrintOptions) error {
	p := newPrinter(w)
	p.printf("policy %s, %d initial rows, %d steps\n", report.Policy, len(report.Initial), len(report.Steps))
	p.table(report.Initial)

	prev := report.Initial
	for _, step := range report.Steps {
		p.step(step)
		if opts.Diff {
			p.diff(prev, step.Rows)
		} else {
			p.table(step.Rows)
		}
		prev = step.Rows
	}

	if n := report.Failed(); n > 0 {
		p.printf("%s\n", p.fail.Render(fmt.Sprintf("%d of %d steps failed", n, len(report.Steps))))
	} else {
		p.printf("%s\n", p.pass.Render(fmt.Sprintf("all %d steps passed", len(report.Steps))))
	}
	return p.err
}

func (p *printer) step(res StepResult) {
	outcome := "ok"
	switch {
	case res.Err != nil:
		outcome = "error: " + res.Err.Error()
	case res.Row != nil:
		outcome = res.Row.String()
	}
	status := p.pass.Render("PASS")
	if !res.Passed() {
		status = p.fail.Render("FAIL")
	}
	p.printf("%s %2d %s -> %s\n", status, res.Number, res.Step, outcome)
	if !res.Passed() {
		p.printf("        %s\n", p.fail.Render(res.Failure))
	}
}

func (p *printer) table(rows []table.Row) {
	if len(rows) == 0 {
		p.printf("        %s\n", p.muted.Render("(empty)"))
		return
	}
	for i, r := range rows {
		p.printf("        %s %s\n", p.muted.Render(fmt.Sprintf("[%d]", i)), r)
	}
}

func (p *printer) diff(before, after []table.Row) {
	lines := LineDiff(Render(before), Render(after))
	if len(lines) == 0 {
		p.printf("        %s\n", p.muted.Render("(unchanged)"))
		return
	}
	for _, line := range lines {
		style := p.muted
		switch line.Type {
		case diffmatchpatch.DiffInsert:
			style = p.add
		case diffmatchpatch.DiffDelete:
			style = p.remove
		}
		p.printf("        %s\n", style.Render(line.String()))
	}
}

// Render formats rows one per line as "id: content".
func Render(rows []table.Row) string {
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DiffLine is one line of a line diff.
type DiffLine struct {
	Type diffmatchpatch.Operation
	Text string
}

func (l DiffLine) String() string {
	switch l.Type {
	case diffmatchpatch.DiffInsert:
		return "+ " + l.Text
	case diffmatchpatch.DiffDelete:
		return "- " + l.Text
	default:
		return "  " + l.Text
	}
}

// LineDiff diffs two newline separated texts line by line. It returns nil
// when they are equal.
func LineDiff(before, after string) []DiffLine {
	if before == after {
		return nil
	}
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var out []DiffLine
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Type: d.Type, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out
}
