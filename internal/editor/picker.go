package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qepting91/saved-response/internal/domain"
)

var ErrNoSelection = errors.New("no saved response selected")

type reasonItem struct {
	reason domain.RemovalReason
}

func (i reasonItem) Title() string       { return i.reason.Title }
func (i reasonItem) Description() string { return firstLine(i.reason.Message) }
func (i reasonItem) FilterValue() string { return i.reason.Title }

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

// Pick shows reasons in a filterable list and returns the chosen one.
func (t Terminal) Pick(ctx context.Context, reasons []domain.RemovalReason) (domain.RemovalReason, error) {
	if len(reasons) == 0 {
		return domain.RemovalReason{}, ErrNoSelection
	}
	final, err := tea.NewProgram(newPickModel(reasons), t.options(ctx)...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return domain.RemovalReason{}, ctx.Err()
		}
		return domain.RemovalReason{}, fmt.Errorf("picker: %w", err)
	}
	m, ok := final.(pickModel)
	if !ok || m.chosen == nil {
		return domain.RemovalReason{}, ErrNoSelection
	}
	return *m.chosen, nil
}

type pickModel struct {
	list   list.Model
	chosen *domain.RemovalReason
}

func newPickModel(reasons []domain.RemovalReason) pickModel {
	items := make([]list.Item, 0, len(reasons))
	for _, r := range reasons {
		items = append(items, reasonItem{reason: r})
	}
	l := list.New(items, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Select Saved Response"
	return pickModel{list: l}
}

func (m pickModel) Init() tea.Cmd { return nil }

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "enter" && m.list.FilterState() != list.Filtering {
			if item, ok := m.list.SelectedItem().(reasonItem); ok {
				r := item.reason
				m.chosen = &r
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickModel) View() string {
	return m.list.View()
}
