package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"anime/catalog/internal/controller"
	"anime/catalog/internal/render"
)

// Run blocks until the user quits or ctx is cancelled. The controller must
// already be restored.
func Run(ctx context.Context, ctrl *controller.Controller, notifier *Notifier, columns []render.Column) error {
	p := tea.NewProgram(NewModel(ctrl, columns), tea.WithAltScreen(), tea.WithContext(ctx))
	if notifier != nil {
		notifier.Attach(p)
		defer notifier.Attach(nil)
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running browser: %w", err)
	}
	return nil
}
