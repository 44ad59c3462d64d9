package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/services/planner"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	idColumn       = lipgloss.NewStyle().Width(16)
	statusColumn   = lipgloss.NewStyle().Width(11)
	deadlineColumn = lipgloss.NewStyle().Width(12)
	labelStyle     = lipgloss.NewStyle().Bold(true).Width(13)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(planner.MarkerColorPending))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(planner.MarkerColorCompleted))
)

// printer writes either styled text or indented JSON
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(cmd *cobra.Command, opts *rootOptions) printer {
	return printer{w: cmd.OutOrStdout(), json: opts.jsonOutput}
}

func (p printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) encodeLine(v any) error {
	return json.NewEncoder(p.w).Encode(v)
}

// message prints a confirmation line; in JSON mode v is printed instead
func (p printer) message(v any, format string, args ...any) error {
	if p.json {
		return p.encode(v)
	}
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func (p printer) tasks(tasks []models.Task) error {
	if p.json {
		return p.encode(tasks)
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(p.w, mutedStyle.Render("No tasks"))
		return err
	}

	fmt.Fprintln(p.w, headerStyle.Render(
		idColumn.Render("ID")+statusColumn.Render("STATUS")+deadlineColumn.Render("DEADLINE")+"TITLE",
	))
	for _, t := range tasks {
		fmt.Fprintln(p.w,
			idColumn.Render(strconv.FormatInt(t.ID, 10))+
				statusColumn.Render(statusText(t.Status))+
				deadlineColumn.Render(deadlineText(t.Deadline))+
				t.Title,
		)
	}
	return nil
}

func (p printer) task(t models.Task) error {
	if p.json {
		return p.encode(t)
	}
	rows := []struct{ label, value string }{
		{"ID", strconv.FormatInt(t.ID, 10)},
		{"Title", t.Title},
		{"Description", t.Description},
		{"Status", statusText(t.Status)},
		{"Deadline", deadlineText(t.Deadline)},
		{"Created", t.CreatedAt},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(p.w, labelStyle.Render(row.label+":")+row.value); err != nil {
			return err
		}
	}
	return nil
}

func statusText(status models.TaskStatus) string {
	if status == models.TaskStatusCompleted {
		return completedStyle.Render(string(status))
	}
	return pendingStyle.Render(string(status))
}

func deadlineText(deadline string) string {
	if deadline == "" {
		return mutedStyle.Render("-")
	}
	return deadline
}

// swatch renders a colored dot for a hex color
func swatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}
