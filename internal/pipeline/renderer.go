package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gofrs/flock"

	"github.com/ppiankov/reltext/internal/model"
)

// Labels are the fixed strings of a text report
type Labels struct {
	Title    string
	Sections [4]SectionLabels
	Tenses   map[model.Tense]string
}

// SectionLabels title and head one table of the report
type SectionLabels struct {
	Title  string // e.g. "1. Пары <Персонаж>:<Локация>"
	Header string // e.g. "Персонаж : Локация\tЧастота"
}

// RussianLabels reproduce the classic analysis_results.txt layout
var RussianLabels = Labels{
	Title: "Результаты анализа:",
	Sections: [4]SectionLabels{
		{"1. Пары <Персонаж>:<Локация>", "Персонаж : Локация\tЧастота"},
		{"2. Пары <Персонаж>:<Действие>", "Персонаж : Действие (время)\tЧастота"},
		{"3. Пары <Локация>:<Организация>", "Локация : Организация\tЧастота"},
		{"4. Пары <Организация>:<Действие>", "Организация : Действие (время)\tЧастота"},
	},
	Tenses: map[model.Tense]string{
		model.TensePast:    "прошедшее",
		model.TensePresent: "настоящее",
		model.TenseFuture:  "будущее",
	},
}

// EnglishLabels are used with report language "en"
var EnglishLabels = Labels{
	Title: "Analysis results:",
	Sections: [4]SectionLabels{
		{"1. Pairs <Person>:<Location>", "Person : Location\tFrequency"},
		{"2. Pairs <Person>:<Action>", "Person : Action (tense)\tFrequency"},
		{"3. Pairs <Location>:<Organization>", "Location : Organization\tFrequency"},
		{"4. Pairs <Organization>:<Action>", "Organization : Action (tense)\tFrequency"},
	},
	Tenses: map[model.Tense]string{
		model.TensePast:    "past",
		model.TensePresent: "present",
		model.TenseFuture:  "future",
	},
}

// Renderer renders reports
type Renderer struct {
	labels Labels
}

// NewRenderer creates a renderer for language "ru" (default) or "en"
func NewRenderer(language string) (*Renderer, error) {
	switch strings.ToLower(language) {
	case "", "ru":
		return &Renderer{labels: RussianLabels}, nil
	case "en":
		return &Renderer{labels: EnglishLabels}, nil
	default:
		return nil, fmt.Errorf("unknown report language: %s (supported: ru, en)", language)
	}
}

type row struct {
	left, right string
	count       int
}

type section struct {
	SectionLabels
	rows []row
}

func (r *Renderer) action(verb string, tense model.Tense) string {
	if label := r.labels.Tenses[tense]; label != "" {
		return verb + " (" + label + ")"
	}
	return verb
}

func (r *Renderer) sections(report *model.Report) []section {
	out := make([]section, 4)
	for i := range out {
		out[i].SectionLabels = r.labels.Sections[i]
	}
	for _, x := range report.PersonLocation {
		out[0].rows = append(out[0].rows, row{x.Key.Person, x.Key.Location, x.Count})
	}
	for _, x := range report.PersonAction {
		out[1].rows = append(out[1].rows, row{x.Key.Person, r.action(x.Key.Verb, x.Key.Tense), x.Count})
	}
	for _, x := range report.LocationOrganization {
		out[2].rows = append(out[2].rows, row{x.Key.Location, x.Key.Organization, x.Count})
	}
	for _, x := range report.OrganizationAction {
		out[3].rows = append(out[3].rows, row{x.Key.Organization, r.action(x.Key.Verb, x.Key.Tense), x.Count})
	}
	return out
}

// RenderText writes the plain-text report: four sections of "left : right<TAB>count" rows
func (r *Renderer) RenderText(w io.Writer, report *model.Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", r.labels.Title)
	for i, s := range r.sections(report) {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%s\n%s\n", s.Title, s.Header)
		for _, x := range s.rows {
			fmt.Fprintf(bw, "%s : %s\t%d\n", x.left, x.right, x.count)
		}
	}
	return bw.Flush()
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as Markdown tables followed by document statuses
func (r *Renderer) RenderMarkdown(w io.Writer, report *model.Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n\n", strings.TrimSuffix(r.labels.Title, ":"))
	if report.RunID != "" {
		fmt.Fprintf(bw, "- Run: `%s`\n", report.RunID)
	}
	fmt.Fprintf(bw, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(bw, "- Corpus: `%s` (%d documents, %d failed)\n", report.InputDir, len(report.Documents), len(report.Failed()))
	fmt.Fprintf(bw, "- Annotator: %s\n\n", report.Annotator)

	for _, s := range r.sections(report) {
		cols := headerColumns(s.Header)
		fmt.Fprintf(bw, "## %s\n\n", s.Title)
		if len(s.rows) == 0 {
			bw.WriteString("_none_\n\n")
			continue
		}
		fmt.Fprintf(bw, "| %s | %s | %s |\n|---|---|---:|\n", mdEscape(cols[0]), mdEscape(cols[1]), mdEscape(cols[2]))
		for _, x := range s.rows {
			fmt.Fprintf(bw, "| %s | %s | %d |\n", mdEscape(x.left), mdEscape(x.right), x.count)
		}
		bw.WriteString("\n")
	}

	if failed := report.Failed(); len(failed) > 0 {
		bw.WriteString("## Skipped documents\n\n")
		for _, d := range failed {
			fmt.Fprintf(bw, "- `%s`: %s\n", d.Path, d.Error)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// headerColumns splits "Персонаж : Локация\tЧастота" into its three column names
func headerColumns(header string) [3]string {
	pair, freq, _ := strings.Cut(header, "\t")
	left, right, _ := strings.Cut(pair, " : ")
	return [3]string{left, right, freq}
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

var (
	summaryTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	summaryCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	summaryBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	summaryWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// RenderSummary prints the top rows of each section as terminal tables
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report, rows int) {
	if rows <= 0 {
		rows = 10
	}

	var sections []string
	sections = append(sections, summaryTitleStyle.Render(fmt.Sprintf("%s %d documents, %d failed",
		r.labels.Title, len(report.Documents), len(report.Failed()))))

	for _, s := range r.sections(report) {
		if len(s.rows) == 0 {
			continue
		}
		cols := headerColumns(s.Header)
		data := make([][]string, 0, rows)
		for i, x := range s.rows {
			if i >= rows {
				break
			}
			data = append(data, []string{x.left, x.right, strconv.Itoa(x.count)})
		}
		t := table.New().
			Headers(cols[0], cols[1], cols[2]).
			Rows(data...).
			Border(lipgloss.RoundedBorder()).
			BorderStyle(summaryBorderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return summaryHeaderStyle
				}
				if col == 2 {
					return summaryCellStyle.Align(lipgloss.Right)
				}
				return summaryCellStyle
			})
		sections = append(sections, s.Title, t.String())
	}

	for _, d := range report.Failed() {
		sections = append(sections, summaryWarnStyle.Render(fmt.Sprintf("skipped %s: %s", d.Path, d.Error)))
	}

	fmt.Fprintln(w, strings.Join(sections, "\n"))
}

// WriteFile writes a rendered report atomically. Concurrent writers of the
// same path are rejected through an advisory lock on path+".lock".
func WriteFile(path string, render func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another run is writing %s", path)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := render(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
