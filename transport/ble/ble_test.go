package ble

import (
	"strings"
	"testing"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		address    string
		local      string
		hasService bool
		want       bool
	}{
		{"address match ignores case", Options{Address: "aa:bb:cc:dd:ee:ff"}, "AA:BB:CC:DD:EE:FF", "", false, true},
		{"address mismatch", Options{Address: "AA:BB:CC:DD:EE:00"}, "AA:BB:CC:DD:EE:FF", "OTA", true, false},
		{"name match", Options{Name: "Sensor OTA"}, "AA:BB:CC:DD:EE:FF", "Sensor OTA", false, true},
		{"name mismatch", Options{Name: "Sensor OTA"}, "AA:BB:CC:DD:EE:FF", "Other", true, false},
		{"service advertised", Options{}, "AA:BB:CC:DD:EE:FF", "", true, true},
		{"service missing", Options{}, "AA:BB:CC:DD:EE:FF", "Sensor OTA", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(tt.opts, tt.address, tt.local, tt.hasService); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUUIDs(t *testing.T) {
	if got := strings.ToLower(ServiceUUID.String()); got != ServiceUUIDString {
		t.Errorf("ServiceUUID = %s, want %s", got, ServiceUUIDString)
	}
	if got := strings.ToLower(CharacteristicUUID.String()); got != CharacteristicUUIDString {
		t.Errorf("CharacteristicUUID = %s, want %s", got, CharacteristicUUIDString)
	}
}
