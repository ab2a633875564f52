//go:build !cgo && !windows
// +build !cgo,!windows

package tray

import "context"

type stubController struct{}

func newController(*Tray) controller { return stubController{} }

// Run reports that no tray is available on this build.
func (stubController) Run(context.Context, <-chan state) error {
	return ErrUnavailable
}
