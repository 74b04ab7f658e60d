// Package ble turns leaf climate beacons seen over Bluetooth LE into mesh
// frames, so a gateway can hear a leaf that is out of mesh range.
package ble

import (
	"bytes"
	"time"
)

// Match is a single observation of a leaf beacon.
type Match struct {
	Address   string
	RSSI      int16
	LocalName string
	CompanyID uint16
	Data      []byte
	SeenAt    time.Time
}

// Filter selects advertisements. Zero fields match anything.
type Filter struct {
	LocalName            string
	CompanyID            uint16
	ManufacturerDataPref []byte
}

// Options configure a Listener. Adapter defaults to hci0.
type Options struct {
	Adapter string
	Filter  Filter
}

// Advert is the part of a scan result the filter looks at.
type Advert struct {
	CompanyID uint16
	Data      []byte
}

// Pick returns the first advert that passes the filter.
func (f Filter) Pick(localName string, adverts []Advert) (Advert, bool) {
	if f.LocalName != "" && localName != f.LocalName {
		return Advert{}, false
	}
	for _, a := range adverts {
		if f.CompanyID != 0 && a.CompanyID != f.CompanyID {
			continue
		}
		if bytes.HasPrefix(a.Data, f.ManufacturerDataPref) {
			return a, true
		}
	}
	return Advert{}, false
}
