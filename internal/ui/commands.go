package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/myway/internal/form"
	"github.com/five82/myway/internal/geo"
	"github.com/five82/myway/internal/state"
)

// Messages

type markersChangedMsg struct{}

type locationMsg struct {
	coord geo.Coordinate
	err   error
}

type submitDoneMsg struct {
	ctl *form.Controller
	sub form.Submission
	err error
}

type lookupDoneMsg struct {
	ctl *form.Controller
	res form.LookupResult
}

type deleteDoneMsg struct {
	id  string
	err error
}

// Commands

func waitForChangeCmd(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-changes:
			return markersChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func locateCmd(ctx context.Context, locator geo.Locator) tea.Cmd {
	return func() tea.Msg {
		coord, err := locator.CurrentPosition(ctx)
		return locationMsg{coord: coord, err: err}
	}
}

func submitCmd(ctx context.Context, ctl *form.Controller, sub form.Submission) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{ctl: ctl, sub: sub, err: ctl.Submit(ctx, sub)}
	}
}

func lookupCmd(ctx context.Context, ctl *form.Controller, countryName string) tea.Cmd {
	return func() tea.Msg {
		return lookupDoneMsg{ctl: ctl, res: ctl.LookupCurrency(ctx, countryName)}
	}
}

func deleteCmd(ctx context.Context, markers *state.Markers, id string) tea.Cmd {
	return func() tea.Msg {
		err := markers.Delete(ctx, id)
		if err != nil {
			err = fmt.Errorf("%w: %w", form.ErrDeleteFailed, err)
		}
		return deleteDoneMsg{id: id, err: err}
	}
}

func locationErrorMessage(err error) string {
	if errors.Is(err, geo.ErrPermissionDenied) {
		return "Location permission was denied."
	}
	return "Could not get the current location."
}
