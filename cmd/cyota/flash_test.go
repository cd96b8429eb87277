package main

import (
	"testing"

	"github.com/moffa90/go-cyacd-ota/cyacd"
	"github.com/moffa90/go-cyacd-ota/protocol"
)

func TestSimulatorConfig(t *testing.T) {
	images := []*cyacd.Firmware{
		{
			Header: cyacd.Header{SiliconID: "11223344", SiliconRev: "02", ChecksumType: "00"},
			Rows:   []*cyacd.Row{{ArrayID: 0, RowNum: 0x10}, {ArrayID: 1, RowNum: 0x0250}},
		},
		{
			Header: cyacd.Header{SiliconID: "11223344", SiliconRev: "02", ChecksumType: "01"},
			Rows:   []*cyacd.Row{{ArrayID: 2, RowNum: 0x01}},
		},
	}

	cfg, err := simulatorConfig(images)
	if err != nil {
		t.Fatalf("simulatorConfig() error = %v", err)
	}
	if cfg.SiliconID != 0x11223344 || cfg.SiliconRev != 0x02 {
		t.Errorf("silicon = 0x%08X rev 0x%02X", cfg.SiliconID, cfg.SiliconRev)
	}

	want := map[byte]protocol.FlashSize{
		0: {StartRow: 0, EndRow: 0x01FF},
		1: {StartRow: 0, EndRow: 0x0250},
		2: {StartRow: 0, EndRow: 0x01FF},
	}
	if len(cfg.FlashRanges) != len(want) {
		t.Fatalf("FlashRanges = %v, want %v", cfg.FlashRanges, want)
	}
	for id, r := range want {
		if cfg.FlashRanges[id] != r {
			t.Errorf("FlashRanges[%d] = %+v, want %+v", id, cfg.FlashRanges[id], r)
		}
	}
}

func TestSimulatorConfigBadSilicon(t *testing.T) {
	images := []*cyacd.Firmware{{Header: cyacd.Header{SiliconID: "zz", SiliconRev: "00"}}}
	if _, err := simulatorConfig(images); err == nil {
		t.Error("simulatorConfig() error = nil, want error")
	}
}
