package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/nhle/bizdash/internal/model"
	"github.com/nhle/bizdash/internal/theme"
)

type format string

const (
	formatTable format = "table"
	formatJSON  format = "json"
	formatYAML  format = "yaml"
)

func parseFormat(raw string) (format, error) {
	switch f := format(raw); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", raw)
	}
}

// render writes v in the selected format. rows is only consulted for
// table output.
func (e *env) render(w io.Writer, v interface{}, headers []string, rows func() [][]string) error {
	f, err := parseFormat(e.output)
	if err != nil {
		return err
	}

	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorGray)).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return theme.HeaderStyle
				}
				return lipgloss.NewStyle().Padding(0, 1)
			}).
			Headers(headers...).
			Rows(rows()...)
		_, err := fmt.Fprintln(w, t.Render())
		return err
	}
}

func todoRows(todos []model.Todo) [][]string {
	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		done := "[ ]"
		title := t.Title
		if t.Completed {
			done = "[x]"
			title = theme.DoneStyle.Render(title)
		}
		rows = append(rows, []string{
			t.ID,
			done,
			title,
			theme.PriorityStyle(t.Priority).Render(string(t.Priority)),
			formatDue(t.DueDate),
			t.ListID,
		})
	}
	return rows
}

var todoHeaders = []string{"ID", "DONE", "TITLE", "PRIORITY", "DUE", "LIST"}

func formatDue(d *time.Time) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.Local().Format(dateLayout)
}

func agreementRows(agreements []model.Agreement) [][]string {
	rows := make([][]string, 0, len(agreements))
	for _, a := range agreements {
		rows = append(rows, []string{
			a.ID,
			a.Element,
			a.Responsible,
			theme.StatusStyle(a.Status).Render(string(a.Status)),
			theme.StatusStyle(a.SJStatus).Render(string(a.SJStatus)),
			a.DeliveryDate,
			a.ListID,
		})
	}
	return rows
}

var agreementHeaders = []string{"ID", "ELEMENT", "RESPONSIBLE", "STATUS", "SJ STATUS", "DELIVERY", "LIST"}

// dateLayout is the format accepted and printed for due dates.
const dateLayout = "2006-01-02"

// parseDate reads a calendar day in the local time zone.
func parseDate(raw string) (*time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
	}
	return &d, nil
}
