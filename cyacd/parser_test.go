package cyacd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moffa90/go-cyacd-ota/protocol"
)

// rowLine builds a row line with a valid trailing checksum.
func rowLine(arrayID byte, rowNum uint16, data []byte) string {
	size := uint16(len(data))
	raw := []byte{arrayID, byte(rowNum >> 8), byte(rowNum), byte(size >> 8), byte(size)}
	raw = append(raw, data...)
	return fmt.Sprintf("%X%02X", raw, protocol.CalculateRowChecksum(raw))
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Firmware
		wantErr error
	}{
		{
			name: "valid simple firmware",
			input: "1E9602AA0000\n" +
				"00000000050102030405EC\n",
			want: &Firmware{
				Header: Header{SiliconID: "1e9602aa", SiliconRev: "00", ChecksumType: "00"},
				Rows: []*Row{
					{ArrayID: 0x00, RowNum: 0x0000, Size: 5, Data: []byte{0x01, 0x02, 0x03, 0x04, 0x05}, Checksum: 0xEC},
				},
				RowGroups: []RowGroup{{RowID: "00", Count: 1}},
			},
		},
		{
			name: "multiple rows and arrays",
			input: "1E9602AA0001\n" +
				"00000000050102030405EC\n" +
				"00000100050506070809D7\n" +
				"0101FF0005AABBCCDDEEFE\n",
			want: &Firmware{
				Header: Header{SiliconID: "1e9602aa", SiliconRev: "00", ChecksumType: "01"},
				Rows: []*Row{
					{ArrayID: 0x00, RowNum: 0x0000, Size: 5, Data: []byte{0x01, 0x02, 0x03, 0x04, 0x05}, Checksum: 0xEC},
					{ArrayID: 0x00, RowNum: 0x0001, Size: 5, Data: []byte{0x05, 0x06, 0x07, 0x08, 0x09}, Checksum: 0xD7},
					{ArrayID: 0x01, RowNum: 0x01FF, Size: 5, Data: []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}, Checksum: 0xFE},
				},
				RowGroups: []RowGroup{{RowID: "00", Count: 2}, {RowID: "01", Count: 1}},
			},
		},
		{
			name: "blank lines, colons and carriage returns",
			input: "1E9602AA0000\r\n" +
				"\r\n" +
				":00000000050102030405EC\r\n" +
				"\n",
			want: &Firmware{
				Header: Header{SiliconID: "1e9602aa", SiliconRev: "00", ChecksumType: "00"},
				Rows: []*Row{
					{ArrayID: 0x00, RowNum: 0x0000, Size: 5, Data: []byte{0x01, 0x02, 0x03, 0x04, 0x05}, Checksum: 0xEC},
				},
				RowGroups: []RowGroup{{RowID: "00", Count: 1}},
			},
		},
		{
			name:  "header only",
			input: "1E9602AA0000\n",
			want: &Firmware{
				Header: Header{SiliconID: "1e9602aa", SiliconRev: "00", ChecksumType: "00"},
			},
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: ErrEmptyFile,
		},
		{
			name:    "only blank lines",
			input:   "\n\n \n",
			wantErr: ErrEmptyFile,
		},
		{
			name:    "header too short",
			input:   "1E9602\n",
			wantErr: ErrHeaderTooShort,
		},
		{
			name:    "invalid header hex",
			input:   "ZZZZZZZZZZZZ\n",
			wantErr: ErrInvalidHex,
		},
		{
			name: "row too short",
			input: "1E9602AA0000\n" +
				"00000000040102\n",
			wantErr: ErrRowTooShort,
		},
		{
			name: "declared length larger than data",
			input: "1E9602AA0000\n" +
				"00000000080102030405F2\n",
			wantErr: ErrRowDataLengthMismatch,
		},
		{
			name: "declared length smaller than data",
			input: "1E9602AA0000\n" +
				"00000000020102030405F2\n",
			wantErr: ErrRowDataLengthMismatch,
		},
		{
			name: "invalid row hex",
			input: "1E9602AA0000\n" +
				"000000000501020304ZZF2\n",
			wantErr: ErrInvalidHex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBytes([]byte(tt.input))

			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error %v, got nil", tt.wantErr)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want kind %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.Header != tt.want.Header {
				t.Errorf("Header = %+v, want %+v", got.Header, tt.want.Header)
			}

			if len(got.Rows) != len(tt.want.Rows) {
				t.Fatalf("Rows count = %d, want %d", len(got.Rows), len(tt.want.Rows))
			}

			for i, row := range got.Rows {
				wantRow := tt.want.Rows[i]

				if row.ArrayID != wantRow.ArrayID {
					t.Errorf("Row[%d].ArrayID = 0x%02X, want 0x%02X", i, row.ArrayID, wantRow.ArrayID)
				}
				if row.RowNum != wantRow.RowNum {
					t.Errorf("Row[%d].RowNum = %d, want %d", i, row.RowNum, wantRow.RowNum)
				}
				if row.Size != wantRow.Size {
					t.Errorf("Row[%d].Size = %d, want %d", i, row.Size, wantRow.Size)
				}
				if !bytes.Equal(row.Data, wantRow.Data) {
					t.Errorf("Row[%d].Data = %v, want %v", i, row.Data, wantRow.Data)
				}
				if row.Checksum != wantRow.Checksum {
					t.Errorf("Row[%d].Checksum = 0x%02X, want 0x%02X", i, row.Checksum, wantRow.Checksum)
				}
			}

			if len(got.RowGroups) != len(tt.want.RowGroups) {
				t.Fatalf("RowGroups = %v, want %v", got.RowGroups, tt.want.RowGroups)
			}
			for i := range got.RowGroups {
				if got.RowGroups[i] != tt.want.RowGroups[i] {
					t.Errorf("RowGroups[%d] = %v, want %v", i, got.RowGroups[i], tt.want.RowGroups[i])
				}
			}
		})
	}
}

func TestParseErrorLineNumber(t *testing.T) {
	input := "1E9602AA0000\n\n00000000050102030405EC\n0000\n"
	_, err := ParseBytes([]byte(input))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "line 4") {
		t.Errorf("error = %v, want line 4", err)
	}
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader("000102030405")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.SiliconID != "00010203" {
		t.Errorf("SiliconID = %q, want %q", h.SiliconID, "00010203")
	}
	if h.SiliconRev != "04" {
		t.Errorf("SiliconRev = %q, want %q", h.SiliconRev, "04")
	}
	if h.ChecksumType != "05" {
		t.Errorf("ChecksumType = %q, want %q", h.ChecksumType, "05")
	}

	h, err = ParseHeader("1E9602AAFF00EXTRA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.SiliconID != "1e9602aa" || h.SiliconRev != "ff" {
		t.Errorf("header = %+v, want lower-cased fields", h)
	}
}

func TestChecksumKind(t *testing.T) {
	tests := []struct {
		typ  string
		want protocol.ChecksumKind
	}{
		{"00", protocol.ChecksumAdditive},
		{"01", protocol.ChecksumCRC16},
		{"05", protocol.ChecksumCRC16},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got := Header{ChecksumType: tt.typ}.ChecksumKind()
			if got != tt.want {
				t.Errorf("ChecksumKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHexToInt(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"00", 0},
		{"ff", 255},
		{"FF", 255},
		{"0100", 256},
	}

	for _, tt := range tests {
		got, err := HexToInt(tt.in)
		if err != nil {
			t.Fatalf("HexToInt(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("HexToInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := HexToInt("zz"); err == nil {
		t.Error("HexToInt(\"zz\") expected error")
	}
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firmware.cyacd")
	content := "1E9602AA0000\n" + rowLine(0, 2, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01}) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	fw, err := Parse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fw.Rows) != 1 || fw.Rows[0].RowNum != 2 {
		t.Errorf("Rows = %+v, want one row numbered 2", fw.Rows)
	}

	if _, err := Parse(filepath.Join(t.TempDir(), "missing.cyacd")); err == nil {
		t.Error("expected error for missing file")
	}
}

func BenchmarkParseBytes(b *testing.B) {
	var buf bytes.Buffer
	buf.WriteString("1E9602AA0000\n")
	data := make([]byte, 128)
	for i := 0; i < 100; i++ {
		buf.WriteString(rowLine(0, uint16(i), data) + "\n")
	}
	raw := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ParseBytes(raw)
	}
}
