// Package browse is a read-only terminal view over a keyword's current
// listings, split into listings the subscriber has not been sent yet and
// listings already in their seen-set. Browsing never changes state.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfeed/internal/model"
)

// Lines per listing in the list view (title + subtitle + blank separator).
const itemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

const (
	paneNew = iota
	paneSeen
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle   = headerStyle.Foreground(lipgloss.Color("39"))
	inactiveHeaderStyle = headerStyle.Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle    = lipgloss.NewStyle().Bold(true)
	itemSubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)
)

type browseModel struct {
	keyword string
	panes   [2][]model.JobRecord
	vps     [2]viewport.Model
	cursors [2]int
	active  int
	width   int
	height  int
	ready   bool

	view           viewState
	detail         model.JobRecord
	detailViewport viewport.Model

	wantQuit bool
}

// split partitions records into unseen and seen, keeping fetch order.
func split(records []model.JobRecord, seen map[string]struct{}) (fresh, old []model.JobRecord) {
	for _, r := range records {
		if _, ok := seen[r.OfferLink]; ok {
			old = append(old, r)
		} else {
			fresh = append(fresh, r)
		}
	}
	return fresh, old
}

func newBrowseModel(keyword string, records []model.JobRecord, seen map[string]struct{}) browseModel {
	fresh, old := split(records, seen)
	return browseModel{keyword: keyword, panes: [2][]model.JobRecord{fresh, old}}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(renderDetail(m.detail))
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}
	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		return m, tea.Quit
	case "tab", "left", "right":
		m.active = 1 - m.active
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "enter":
		return m.openDetailView(), nil
	}

	var cmd tea.Cmd
	m.vps[m.active], cmd = m.vps[m.active].Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detail.OfferLink)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *browseModel) moveCursor(delta int) {
	last := max(len(m.panes[m.active])-1, 0)
	m.cursors[m.active] = clamp(m.cursors[m.active]+delta, 0, last)
	m.recalcContent()

	vp := &m.vps[m.active]
	top := m.cursors[m.active] * itemHeight
	bottom := top + itemHeight - 1
	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m browseModel) openDetailView() browseModel {
	records := m.panes[m.active]
	if len(records) == 0 {
		return m
	}
	m.view = viewDetail
	m.detail = records[m.cursors[m.active]]
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detailViewport.SetContent(renderDetail(m.detail))
	return m
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)
	// Header + border top/bottom + status bar.
	paneHeight := max(m.height-4, 5)

	for i := range m.vps {
		if !m.ready {
			m.vps[i] = viewport.New(paneWidth, paneHeight)
			continue
		}
		m.vps[i].Width = paneWidth
		m.vps[i].Height = paneHeight
	}
	m.ready = true
	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	for i := range m.vps {
		m.vps[i].SetContent(renderRecords(m.panes[i], m.cursors[i], m.active == i))
	}
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	paneWidth := m.vps[paneNew].Width
	titles := [2]string{
		fmt.Sprintf(" New (%d)", len(m.panes[paneNew])),
		fmt.Sprintf(" Already sent (%d)", len(m.panes[paneSeen])),
	}

	var headers, panes [2]string
	for i := range panes {
		hs, bs := inactiveHeaderStyle, inactiveBorderStyle
		if i == m.active {
			hs, bs = activeHeaderStyle, activeBorderStyle
		}
		headers[i] = lipgloss.NewStyle().Width(paneWidth + 2).Render(hs.Render(titles[i]))
		panes[i] = bs.Width(paneWidth).Render(m.vps[i].View())
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top, headers[0], " ", headers[1])
	body := lipgloss.JoinHorizontal(lipgloss.Top, panes[0], " ", panes[1])

	total := len(m.panes[paneNew]) + len(m.panes[paneSeen])
	statusText := fmt.Sprintf(" %q: %d listings    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		m.keyword, total)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + body + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Listing")
	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open link  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func renderDetail(r model.JobRecord) string {
	var b strings.Builder
	for _, f := range []struct{ label, value string }{
		{"Title", r.Title},
		{"Company", r.Company},
		{"Location", r.Location},
		{"Salary", r.Salary},
		{"Published", r.Published},
		{"Source", r.Source},
		{"Link", r.OfferLink},
	} {
		b.WriteString(detailLabelStyle.Render(f.label))
		b.WriteString(f.value)
		b.WriteByte('\n')
	}
	return b.String()
}

func renderRecords(records []model.JobRecord, cursor int, isActive bool) string {
	if len(records) == 0 {
		return "  (no listings)"
	}

	var b strings.Builder
	for i, r := range records {
		titleSt, subtitleSt, prefix := itemTitleStyle, itemSubtitleStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(r.Title))
		b.WriteByte('\n')
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", r.Company, r.Location, r.Source)))
		b.WriteByte('\n')

		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the split-pane browse view for one keyword. Returns
// wantQuit=true if the user pressed q/ctrl+c, false on esc (back to the picker).
func Run(keyword string, records []model.JobRecord, seen map[string]struct{}) (bool, error) {
	p := tea.NewProgram(newBrowseModel(keyword, records, seen), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(browseModel).wantQuit, nil
}
