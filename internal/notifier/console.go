package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfeed/internal/model"
)

var _ model.Deliverer = (*ConsoleNotifier)(nil)

var (
	markerAStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	markerBStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	linkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Underline(true)
	noticeStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("252"))
	actionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ConsoleNotifier prints deliveries to a terminal. Used by the one-shot CLI
// commands so results show up where the command was run.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) SendBatch(_ context.Context, _ string, records []model.RenderedRecord) error {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(RenderRecord(r))
		b.WriteString("\n\n")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := io.WriteString(n.w, b.String())
	return err
}

func (n *ConsoleNotifier) SendNotice(_ context.Context, _ string, notice model.Notice) error {
	line := noticeStyle.Render(notice.Text)
	if len(notice.Actions) > 0 {
		line += "  " + actionStyle.Render("["+strings.Join(actionLabels(notice.Actions), "] [")+"]")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintln(n.w, line)
	return err
}

// RenderRecord formats one numbered listing as a few styled lines.
func RenderRecord(r model.RenderedRecord) string {
	style := markerBStyle
	if r.Marker == model.MarkerA {
		style = markerAStyle
	}
	j := r.Job
	return fmt.Sprintf("%s %s\n   %s\n   %s\n   %s",
		style.Render(fmt.Sprintf("[%s] %d.", r.Marker, r.Number)),
		titleStyle.Render(j.Title),
		metaStyle.Render(j.Company+" · "+j.Location),
		metaStyle.Render("salary: "+j.Salary+" · published: "+j.Published),
		linkStyle.Render(j.OfferLink),
	)
}
