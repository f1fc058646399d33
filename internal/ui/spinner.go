package ui

// spinner.go provides a blocking spinner for long-running operations.
// Uses Bubble Tea spinner (white) instead of huh/spinner.

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned when the user presses ctrl+c under a spinner
var ErrInterrupted = errors.New("interrupted")

// actionDoneMsg signals the action completed
type actionDoneMsg struct{}

// blockingSpinnerModel runs a spinner while an action executes
type blockingSpinnerModel struct {
	spinner     spinner.Model
	title       string
	action      func(ctx context.Context)
	ctx         context.Context
	cancel      context.CancelFunc
	done        bool
	interrupted bool
}

// RunWithSpinner executes an action while displaying a spinner.
// ctrl+c cancels the context passed to the action and returns
// ErrInterrupted once the action has returned.
//
// Example:
//
//	var run *models.RunResult
//	var findErr error
//	err := RunWithSpinner("Searching KXMR...", func(ctx context.Context) {
//	    run, findErr = locator.FindLatest(ctx, "KXMR", nil)
//	})
func RunWithSpinner(title string, action func(ctx context.Context)) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := blockingSpinnerModel{
		spinner: NewAppSpinner(),
		title:   title,
		action:  action,
		ctx:     ctx,
		cancel:  cancel,
	}

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("spinner program error: %w", err)
	}

	if finalModel.(blockingSpinnerModel).interrupted {
		return ErrInterrupted
	}
	return nil
}

func (m blockingSpinnerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.runAction(),
	)
}

func (m blockingSpinnerModel) runAction() tea.Cmd {
	return func() tea.Msg {
		m.action(m.ctx)
		return actionDoneMsg{}
	}
}

func (m blockingSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// Cancel and wait for the action to notice
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			m.cancel()
		}
	}

	return m, nil
}

func (m blockingSpinnerModel) View() string {
	if m.done {
		return ""
	}
	if m.interrupted {
		return fmt.Sprintf("%s %s", m.spinner.View(), RenderDim("Cancelling..."))
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), RenderNormal(m.title))
}
