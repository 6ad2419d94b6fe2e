package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/reorder"
)

// Actions performs the mutations the dashboard can trigger. Implementations
// are expected to invalidate the affected cache keys on success.
type Actions interface {
	reorder.Committer

	RefreshAll()
	ContainerAction(ctx context.Context, hostID, containerID string, action homeapi.ContainerAction) error
	SetPinned(ctx context.Context, pin homeapi.PinnedService, pinned bool) error
	DeleteLink(ctx context.Context, id int) error
	DeleteTodo(ctx context.Context, hostID string, id int) error
}

// actionResultMsg reports the outcome of a mutation started from a key.
type actionResultMsg struct {
	label string
	err   error
}

// orderResultMsg reports the outcome of a link order commit.
type orderResultMsg struct {
	commit reorder.Commit
	err    error
}

// runAction runs fn off the UI goroutine and reports back as actionResultMsg.
func (m Model) runAction(label string, fn func(ctx context.Context) error) tea.Cmd {
	if m.actions == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return actionResultMsg{label: label, err: fn(ctx)}
	}
}

// commitOrderCmd sends a finished drag to the backend.
func (m Model) commitOrderCmd(c reorder.Commit) tea.Cmd {
	if m.actions == nil {
		return func() tea.Msg {
			return orderResultMsg{commit: c, err: fmt.Errorf("no backend configured")}
		}
	}
	ctx, actions := m.ctx, m.actions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return orderResultMsg{commit: c, err: actions.CommitOrder(ctx, c)}
	}
}

// containerAction acts on the selected container.
func (m Model) containerAction(action homeapi.ContainerAction) tea.Cmd {
	if m.focus != PanelContainers {
		return nil
	}
	ct, ok := m.selectedContainer()
	if !ok {
		return nil
	}
	label := fmt.Sprintf("%s %s", action, ct.Item.Name)
	return m.runAction(label, func(ctx context.Context) error {
		return m.actions.ContainerAction(ctx, ct.Host.ID, ct.Item.ID, action)
	})
}

// togglePin pins or unpins the selected service.
func (m Model) togglePin() tea.Cmd {
	if m.focus != PanelServices {
		return nil
	}
	units := m.sortedServices()
	idx := m.selected[PanelServices]
	if idx < 0 || idx >= len(units) {
		return nil
	}
	u := units[idx]
	pin := homeapi.PinnedService{Name: u.Item.Name, Host: u.Host.Address}
	pinned := !m.snapshot.IsPinned(pin.Host, pin.Name)
	label := "unpin " + pin.Name
	if pinned {
		label = "pin " + pin.Name
	}
	return m.runAction(label, func(ctx context.Context) error {
		return m.actions.SetPinned(ctx, pin, pinned)
	})
}

// deleteSelected removes the selected link or todo.
func (m Model) deleteSelected() tea.Cmd {
	switch m.focus {
	case PanelLinks:
		links := m.links.Display()
		idx := m.selected[PanelLinks]
		if idx < 0 || idx >= len(links) {
			return nil
		}
		l := links[idx]
		return m.runAction("delete link "+l.Name, func(ctx context.Context) error {
			return m.actions.DeleteLink(ctx, l.ID)
		})
	case PanelTodos:
		todos := m.snapshot.Todos
		idx := m.selected[PanelTodos]
		if idx < 0 || idx >= len(todos) {
			return nil
		}
		t := todos[idx]
		return m.runAction("delete todo", func(ctx context.Context) error {
			return m.actions.DeleteTodo(ctx, t.Host.ID, t.Item.ID)
		})
	}
	return nil
}
