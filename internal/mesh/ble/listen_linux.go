package ble

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/bluetooth"
)

// Listener scans one BlueZ adapter for leaf beacons.
type Listener struct {
	adapter *bluetooth.Adapter
	name    string
	filter  Filter
	logger  *slog.Logger
}

func NewListener(opts Options, logger *slog.Logger) *Listener {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	return &Listener{
		adapter: bluetooth.NewAdapter(opts.Adapter),
		name:    opts.Adapter,
		filter:  opts.Filter,
		logger:  logger.With("adapter", opts.Adapter),
	}
}

// Run blocks scanning until ctx is done, which is a clean stop.
func (l *Listener) Run(ctx context.Context, onMatch func(Match)) error {
	if err := l.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable %s: %w", l.name, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = l.adapter.StopScan() })
	defer stop()

	l.logger.Info("ble scan started", "prefix", fmt.Sprintf("% X", l.filter.ManufacturerDataPref))
	err := l.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
		var adverts []Advert
		for _, md := range r.ManufacturerData() {
			adverts = append(adverts, Advert{CompanyID: md.CompanyID, Data: md.Data})
		}
		a, ok := l.filter.Pick(r.LocalName(), adverts)
		if !ok || onMatch == nil {
			return
		}
		onMatch(Match{
			Address:   r.Address.String(),
			RSSI:      r.RSSI,
			LocalName: r.LocalName(),
			CompanyID: a.CompanyID,
			Data:      append([]byte(nil), a.Data...),
			SeenAt:    time.Now(),
		})
	})

	switch {
	case ctx.Err() != nil:
		l.logger.Info("ble scan stopped")
		return nil
	case err != nil:
		return fmt.Errorf("ble scan %s: %w", l.name, err)
	}
	return nil
}
