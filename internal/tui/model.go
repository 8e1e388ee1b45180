package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"anime/catalog/internal/controller"
	"anime/catalog/internal/domain"
	"anime/catalog/internal/render"
	"anime/catalog/internal/viewstate"
)

const scoreStep = 0.5

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeDetail
)

// FetchedMsg tells the model that the controller finished a fetch.
type FetchedMsg struct{}

// Notifier forwards controller notifications to a running program. It drops
// them until a program is attached.
type Notifier struct {
	mu      sync.Mutex
	program *tea.Program
}

func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
}

func (n *Notifier) Notify() {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p != nil {
		p.Send(FetchedMsg{})
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	filterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const helpText = "/ search · t type · 1-4 sort · [ ] min · { } max · x clear scores · n/p page · r reset · enter details · q quit"

type Model struct {
	ctrl    *controller.Controller
	columns []render.Column

	search  textinput.Model
	spinner spinner.Model
	detail  viewport.Model

	renderer      *glamour.TermRenderer
	rendererWidth int

	mode   mode
	cursor int
	width  int
	height int
	err    error
}

func NewModel(ctrl *controller.Controller, columns []render.Column) Model {
	if len(columns) == 0 {
		columns = render.CompactColumns
	}

	si := textinput.New()
	si.Placeholder = "Search by title"
	si.Prompt = "Search: "
	si.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctrl:    ctrl,
		columns: columns,
		search:  si,
		spinner: sp,
		detail:  viewport.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width
		m.detail.Height = max(1, msg.Height-2)
		return m, nil

	case FetchedMsg:
		m.cursor = min(m.cursor, max(0, len(m.ctrl.View().Records)-1))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prefs := m.ctrl.Preferences()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		m.search.SetValue(prefs.SearchText)
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd
	case "t":
		return m.dispatch(viewstate.SelectType(nextType(prefs.SelectedType)))
	case "1", "2", "3", "4":
		field := domain.SortFields[int(msg.String()[0]-'1')]
		return m.dispatch(viewstate.ToggleSort(field))
	case "[":
		return m.dispatch(viewstate.SetMinScore(boundOr(prefs.MinScore, domain.MinScoreLimit) - scoreStep))
	case "]":
		return m.dispatch(viewstate.SetMinScore(boundOr(prefs.MinScore, domain.MinScoreLimit) + scoreStep))
	case "{":
		return m.dispatch(viewstate.SetMaxScore(boundOr(prefs.MaxScore, domain.MaxScoreLimit) - scoreStep))
	case "}":
		return m.dispatch(viewstate.SetMaxScore(boundOr(prefs.MaxScore, domain.MaxScoreLimit) + scoreStep))
	case "x":
		return m.dispatch(viewstate.ClearMinScore(), viewstate.ClearMaxScore())
	case "n", "right":
		m.cursor = 0
		return m.dispatch(viewstate.NextPage())
	case "p", "left":
		m.cursor = 0
		return m.dispatch(viewstate.PrevPage())
	case "r":
		m.cursor = 0
		return m.dispatch(viewstate.Reset())
	case "ctrl+r":
		m.err = m.ctrl.Refresh()
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.ctrl.View().Records)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.openDetail()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.ctrl.Preferences().SearchText {
		m.cursor = 0
		next, dispatchCmd := m.dispatch(viewstate.SetSearchText(m.search.Value()))
		return next, tea.Batch(cmd, dispatchCmd)
	}
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "enter":
		m.mode = modeBrowse
		return m, nil
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) dispatch(actions ...viewstate.Action) (tea.Model, tea.Cmd) {
	_, err := m.ctrl.Dispatch(context.Background(), actions...)
	m.err = err
	return m, nil
}

func (m Model) openDetail() (tea.Model, tea.Cmd) {
	records := m.ctrl.View().Records
	if m.cursor >= len(records) {
		return m, nil
	}

	content := render.Describe(records[m.cursor])
	if r, err := m.getRenderer(); err != nil {
		log.Warnf("⚠️ Markdown renderer unavailable: %v", err)
	} else if out, err := r.Render(content); err != nil {
		log.Warnf("⚠️ Failed to render details: %v", err)
	} else {
		content = out
	}

	m.detail.SetContent(content)
	m.detail.GotoTop()
	m.mode = modeDetail
	return m, nil
}

func (m *Model) getRenderer() (*glamour.TermRenderer, error) {
	wrap := max(40, m.width-4)
	if m.renderer == nil || m.rendererWidth != wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		m.renderer = r
		m.rendererWidth = wrap
	}
	return m.renderer, nil
}

func (m Model) View() string {
	if m.mode == modeDetail {
		return m.detail.View() + "\n" + statusStyle.Render("esc back · ↑/↓ scroll")
	}

	v := m.ctrl.View()
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Anime catalog · page %d of %d", v.Preferences.Page, v.TotalPages)))
	b.WriteString("\n")
	b.WriteString(filterStyle.Render(describeFilters(v.Preferences)))
	b.WriteString("\n")
	if m.mode == modeSearch {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if v.Loading {
		b.WriteString(fmt.Sprintf("%s Loading page %d...", m.spinner.View(), v.Preferences.Page))
	} else {
		b.WriteString(render.Table(v.Records, m.columns, v.Preferences, render.Layout{Width: m.width, Selected: m.cursor + 1}))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(v.Location))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(helpText))
	return b.String()
}

func describeFilters(p domain.Preferences) string {
	search := p.SearchText
	if search == "" {
		search = "-"
	}
	return fmt.Sprintf("Search: %s | Score: %s to %s | Type: %s | Sort: %s %s",
		search,
		formatBound(p.MinScore, "any"),
		formatBound(p.MaxScore, "any"),
		p.SelectedType.GetTypeName(),
		p.SortField,
		p.SortOrder,
	)
}

func formatBound(b domain.Bound, unset string) string {
	if !b.Set {
		return unset
	}
	return fmt.Sprintf("%.1f", b.Value)
}

func boundOr(b domain.Bound, fallback float64) float64 {
	if b.Set {
		return b.Value
	}
	return fallback
}

// nextType cycles unset, then every type, then back to unset.
func nextType(t domain.AnimeType) domain.AnimeType {
	for i, candidate := range domain.AnimeTypes {
		if candidate == t {
			if i+1 < len(domain.AnimeTypes) {
				return domain.AnimeTypes[i+1]
			}
			return domain.AnimeTypeUnset
		}
	}
	return domain.AnimeTypes[0]
}
