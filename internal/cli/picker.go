package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/threatmap/threatmap/pkg/integrations/github"
	"github.com/threatmap/threatmap/pkg/integrations/tmserver"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// isInteractive reports whether stdin is a terminal, which gates the
// repository picker. Piped input falls back to the first-N selection.
func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// pickRepositories runs the interactive picker and returns the chosen
// repositories. limit caps how many can be toggled; zero means no cap.
// Quitting without confirming returns ok=false.
func pickRepositories(repos []tmserver.Repository, limit int) ([]tmserver.Repository, bool, error) {
	m := newRepoPickerModel(repos, limit)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return nil, false, err
	}

	fm, ok := finalModel.(repoPickerModel)
	if !ok || fm.aborted {
		return nil, false, nil
	}
	return fm.chosen(), true, nil
}

// =============================================================================
// repoPickerModel - Interactive repository selection
// =============================================================================

// repoPickerModel is the bubbletea model for picking which repositories to
// analyze. Space toggles, enter confirms; confirming with nothing toggled
// selects the row under the cursor.
type repoPickerModel struct {
	repos    []tmserver.Repository
	selected map[int]bool
	cursor   int
	offset   int
	height   int
	limit    int
	aborted  bool
}

func newRepoPickerModel(repos []tmserver.Repository, limit int) repoPickerModel {
	return repoPickerModel{
		repos:    repos,
		selected: make(map[int]bool),
		height:   15,
		limit:    limit,
	}
}

func (m repoPickerModel) Init() tea.Cmd {
	return nil
}

func (m repoPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.repos)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case " ":
			m.toggle(m.cursor)
		case "enter":
			if len(m.selected) == 0 {
				m.toggle(m.cursor)
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

// toggle flips the selection for row i, refusing new picks at the limit.
func (m *repoPickerModel) toggle(i int) {
	if m.selected[i] {
		delete(m.selected, i)
		return
	}
	if m.limit > 0 && len(m.selected) >= m.limit {
		return
	}
	m.selected[i] = true
}

// chosen returns the toggled repositories in their listed order.
func (m repoPickerModel) chosen() []tmserver.Repository {
	var out []tmserver.Repository
	for i, repo := range m.repos {
		if m.selected[i] {
			out = append(out, repo)
		}
	}
	return out
}

func (m repoPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Repositories"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ confirm  q skip"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.repos) {
		end = len(m.repos)
	}

	for i := m.offset; i < end; i++ {
		repo := m.repos[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mark := "○"
		if m.selected[i] {
			mark = "●"
		}

		name := repoDisplayName(repo)
		badge := "       "
		if github.IsGitHubURL(repo.URI) {
			badge = StyleSuccess.Render(" github")
		}

		line := fmt.Sprintf("%s%s %-32s%s  %s", cursor, mark, name, badge, listDimStyle.Render(repo.URI))
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case m.selected[i]:
			b.WriteString(listNormalStyle.Render(line))
		default:
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := fmt.Sprintf("  [%d/%d] %d selected", m.cursor+1, len(m.repos), len(m.selected))
	if m.limit > 0 {
		status += fmt.Sprintf(" (limit %d)", m.limit)
	}
	b.WriteString(listDimStyle.Render(status))

	return b.String()
}
