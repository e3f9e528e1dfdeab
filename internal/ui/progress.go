// Package ui renders live check progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"glint/internal/driver"
)

const (
	stateQueued   = "queued"
	stateLoading  = "loading"
	stateChecking = "checking"
	stateDone     = "done"
	stateError    = "error"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	stateStyles = map[string]lipgloss.Style{
		stateQueued:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		stateLoading:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		stateChecking: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		stateDone:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		stateError:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// document is one row of the view.
type document struct {
	path    string
	state   string
	elapsed time.Duration
	err     string
}

func (d *document) finished() bool {
	return d.state == stateDone || d.state == stateError
}

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model
	docs    []document
	byPath  map[string]int
	width   int
	// счётчики для заголовка
	finished int
	failed   int
	done     bool
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model showing one row per document.
// The model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	docs := make([]document, len(files))
	byPath := make(map[string]int, len(files))
	for i, file := range files {
		docs[i] = document{path: file, state: stateQueued}
		byPath[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		docs:    docs,
		byPath:  byPath,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(driver.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// next waits for the following driver event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev driver.Event) tea.Cmd {
	idx, ok := m.byPath[ev.File]
	if ev.File == "" || !ok {
		return nil
	}
	doc := &m.docs[idx]
	if doc.finished() {
		return nil
	}
	doc.state = stateOf(ev)
	doc.elapsed = ev.Elapsed
	if ev.Err != nil {
		doc.err = ev.Err.Error()
	}
	if !doc.finished() {
		return nil
	}
	m.finished++
	if doc.state == stateError {
		m.failed++
	}
	return m.bar.SetPercent(float64(m.finished) / float64(len(m.docs)))
}

func stateOf(ev driver.Event) string {
	switch ev.Status {
	case driver.StatusDone:
		return stateDone
	case driver.StatusError:
		return stateError
	case driver.StatusWorking:
		if ev.Stage == driver.StageLoad {
			return stateLoading
		}
		return stateChecking
	}
	return stateQueued
}

func (m *progressModel) View() string {
	if len(m.docs) == 0 {
		return ""
	}
	header := fmt.Sprintf("%s %d/%d", m.title, m.finished, len(m.docs))
	if m.failed > 0 {
		header += fmt.Sprintf(", %d failed", m.failed)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(20, m.width-24)
	for i := range m.docs {
		doc := &m.docs[i]
		name := truncate(doc.path, nameWidth)
		line := "  " + stateStyles[doc.state].Render(fmt.Sprintf("%9s", doc.state)) + " " + name
		switch {
		case doc.err != "":
			used := 13 + runewidth.StringWidth(name)
			line += " " + faintStyle.Render(truncate(doc.err, max(10, m.width-used-1)))
		case doc.state == stateDone:
			line += " " + faintStyle.Render(doc.elapsed.Round(time.Millisecond).String())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// truncate shortens value to width terminal cells, marking the cut with "...".
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
