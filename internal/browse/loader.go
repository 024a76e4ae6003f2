package browse

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfeed/internal/model"
)

// FetchFunc returns the current listings for a keyword across all sources.
type FetchFunc func(ctx context.Context, keyword string) []model.JobRecord

type fetchDoneMsg struct {
	records []model.JobRecord
}

type loaderModel struct {
	keyword   string
	fetchFn   FetchFunc
	spinner   spinner.Model
	result    []model.JobRecord
	cancelled bool
	done      bool
}

func newLoaderModel(keyword string, fetchFn FetchFunc) loaderModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return loaderModel{keyword: keyword, fetchFn: fetchFn, spinner: s}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doFetch(), m.spinner.Tick)
}

func (m loaderModel) doFetch() tea.Cmd {
	fetchFn, keyword := m.fetchFn, m.keyword
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return fetchDoneMsg{records: fetchFn(ctx, keyword)}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		m.result = msg.records
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Searching job boards for %q...\n", m.spinner.View(), m.keyword)
}

// RunLoader shows a spinner while fetching listings. It renders inline (no alt screen).
func RunLoader(keyword string, fetchFn FetchFunc) ([]model.JobRecord, error) {
	p := tea.NewProgram(newLoaderModel(keyword, fetchFn))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	if final.cancelled {
		return nil, fmt.Errorf("cancelled")
	}
	return final.result, nil
}
