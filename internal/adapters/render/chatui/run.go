package chatui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Input    io.Reader
	Output   io.Writer
	Location *time.Location
	// AltScreen draws the UI in the terminal's alternate buffer.
	AltScreen bool
}

// Run activates session, drives the UI until the user quits or ctx ends, and
// deactivates the session on the way out.
func Run(ctx context.Context, session Session, saveName NameStore, opts Options) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	session.Activate()
	defer session.Deactivate()

	p := tea.NewProgram(newModel(ctx, session, saveName, opts.Location), programOpts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run chat ui: %w", err)
	}

	return nil
}
