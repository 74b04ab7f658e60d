//go:build !linux

package ble

import (
	"context"
	"errors"
	"log/slog"
)

// Listener is unavailable off Linux; Run always fails.
type Listener struct {
	opts Options
}

func NewListener(opts Options, _ *slog.Logger) *Listener {
	return &Listener{opts: opts}
}

func (l *Listener) Run(context.Context, func(Match)) error {
	return errors.New("ble: scanning requires BlueZ (linux)")
}
