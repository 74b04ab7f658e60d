package ble

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"auramesh/internal/mesh"
	"auramesh/internal/protocol"
)

func TestParseBeacon(t *testing.T) {
	data := EncodeBeacon(ClimateReading{ReadingID: 7, Temperature: 21.5, Humidity: 40.25})

	r, err := ParseBeacon(data)
	if err != nil {
		t.Fatalf("ParseBeacon() error = %v", err)
	}
	if r.ReadingID != 7 || r.Temperature != 21.5 || r.Humidity != 40.25 {
		t.Fatalf("ParseBeacon() = %+v", r)
	}
}

func TestParseBeacon_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "short", data: []byte{0x01, 0xA7, 0x00}},
		{name: "bad magic", data: append([]byte{0x01, 0xD0}, make([]byte, 12)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBeacon(tt.data); err == nil {
				t.Fatal("ParseBeacon() error = nil")
			}
		})
	}
}

func TestBeaconHandler_QueuesLeafFrameOnce(t *testing.T) {
	codec := protocol.NewCodec(protocol.DefaultLabels)
	inbox := mesh.NewInbox(4)
	h := NewBeaconHandler(codec, inbox, slog.New(slog.NewTextHandler(io.Discard, nil)))

	m := Match{Address: "AA:BB", Data: EncodeBeacon(ClimateReading{ReadingID: 1, Temperature: 30, Humidity: 55})}
	h.HandleMatch(m)
	h.HandleMatch(m)

	if inbox.Len() != 1 {
		t.Fatalf("inbox Len() = %d; want 1", inbox.Len())
	}
	f, _ := inbox.Pop()
	msg, err := codec.DecodeFrom(f.Payload, protocol.RoleLeaf)
	if err != nil {
		t.Fatalf("DecodeFrom() error = %v", err)
	}
	if msg.Temperature != 30 || msg.Humidity != 55 {
		t.Errorf("message = %+v", msg)
	}
	if !math.IsNaN(msg.Gas) {
		t.Errorf("Gas = %v; want NaN", msg.Gas)
	}
}

func TestBeaconHandler_IgnoresForeignPayload(t *testing.T) {
	inbox := mesh.NewInbox(4)
	h := NewBeaconHandler(protocol.NewCodec(protocol.DefaultLabels), inbox, slog.New(slog.NewTextHandler(io.Discard, nil)))

	h.HandleMatch(Match{Address: "AA", Data: []byte{0xFF}})

	if inbox.Len() != 0 {
		t.Fatalf("inbox Len() = %d; want 0", inbox.Len())
	}
}

func TestFilter_Pick(t *testing.T) {
	beacon := Advert{CompanyID: 0xFFFF, Data: EncodeBeacon(ClimateReading{Temperature: 20, Humidity: 30})}
	other := Advert{CompanyID: 0x004C, Data: []byte{0x02, 0x15}}

	tests := []struct {
		name    string
		filter  Filter
		local   string
		adverts []Advert
		want    bool
	}{
		{"prefix matches second advert", Filter{ManufacturerDataPref: BeaconPrefix}, "", []Advert{other, beacon}, true},
		{"prefix misses", Filter{ManufacturerDataPref: BeaconPrefix}, "", []Advert{other}, false},
		{"no adverts", Filter{}, "", nil, false},
		{"name mismatch", Filter{LocalName: "aura-leaf"}, "phone", []Advert{beacon}, false},
		{"name and company match", Filter{LocalName: "aura-leaf", CompanyID: 0xFFFF}, "aura-leaf", []Advert{other, beacon}, true},
		{"company mismatch", Filter{CompanyID: 0x1234}, "", []Advert{beacon}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.filter.Pick(tt.local, tt.adverts)
			if ok != tt.want {
				t.Fatalf("Pick() ok = %v; want %v", ok, tt.want)
			}
			if ok && got.CompanyID != beacon.CompanyID {
				t.Errorf("Pick() = %+v; want the beacon advert", got)
			}
		})
	}
}
