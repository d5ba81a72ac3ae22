// Package editor is the terminal side of a saved response: a textarea for
// revising a draft before it is sent and a list for choosing the reason.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/qepting91/saved-response/internal/dispatch"
)

// Reddit rejects comments and messages longer than this.
const maxResponseLen = 10000

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	onStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

var _ dispatch.Editor = Terminal{}

// Terminal runs the editor and picker as bubbletea programs. Nil In/Out
// mean the process's stdin/stdout.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (t Terminal) options(ctx context.Context) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}
	return opts
}

// Edit implements dispatch.Editor.
func (t Terminal) Edit(ctx context.Context, d dispatch.Draft) (dispatch.Draft, error) {
	final, err := tea.NewProgram(newEditModel(d), t.options(ctx)...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return d, ctx.Err()
		}
		return d, fmt.Errorf("editor: %w", err)
	}
	m, ok := final.(editModel)
	if !ok {
		return d, errors.New("editor: unexpected model")
	}
	if m.cancelled {
		return d, dispatch.ErrEditCancelled
	}
	return m.result(), nil
}

type editModel struct {
	draft     dispatch.Draft
	area      textarea.Model
	done      bool
	cancelled bool
}

func newEditModel(d dispatch.Draft) editModel {
	ta := textarea.New()
	ta.Placeholder = "Write your response..."
	ta.CharLimit = maxResponseLen
	ta.ShowLineNumbers = false
	ta.SetWidth(80)
	ta.SetHeight(12)
	ta.SetValue(d.Text)
	ta.Focus()
	return editModel{draft: d, area: ta}
}

func (m editModel) result() dispatch.Draft {
	d := m.draft
	d.Text = m.area.Value()
	return d
}

func (m editModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s":
			if strings.TrimSpace(m.area.Value()) == "" {
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "ctrl+p":
			// Pin is only offered for replies to posts.
			if m.draft.Mode == dispatch.ModeComment && m.draft.Target.IsPost() {
				m.draft.Options.Pin = !m.draft.Options.Pin
			}
			return m, nil
		case "ctrl+l":
			if m.draft.Mode == dispatch.ModeComment {
				m.draft.Options.Lock = !m.draft.Options.Lock
			}
			return m, nil
		case "ctrl+t":
			if m.draft.Mode == dispatch.ModeMessage {
				m.draft.Options.SendAsInstitution = !m.draft.Options.SendAsInstitution
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	return m, cmd
}

func (m editModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Edit Saved Response"))
	b.WriteString("\n\n")
	b.WriteString(m.area.View())
	b.WriteString("\n\n")

	switch m.draft.Mode {
	case dispatch.ModeComment:
		if m.draft.Target.IsPost() {
			b.WriteString(toggle("Pin response", m.draft.Options.Pin) + "  ")
		}
		b.WriteString(toggle("Lock response", m.draft.Options.Lock))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("ctrl+s submit • esc cancel • ctrl+p pin • ctrl+l lock"))
	case dispatch.ModeMessage:
		b.WriteString(toggle("Message as subreddit", m.draft.Options.SendAsInstitution))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("ctrl+s submit • esc cancel • ctrl+t message as subreddit"))
	}
	b.WriteString("\n")
	return b.String()
}

func toggle(label string, on bool) string {
	if on {
		return onStyle.Render("[x] " + label)
	}
	return offStyle.Render("[ ] " + label)
}
