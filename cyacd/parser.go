package cyacd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Constants for CYACD file format parsing.
const (
	// HeaderLength is the minimum length of the header line in hex characters
	HeaderLength = 12

	// MinimumRowLength is the minimum length for a row line in hex characters
	MinimumRowLength = 21

	// Field widths of a row line, in hex characters
	arrayIDDigits  = 2
	rowNumDigits   = 4
	lengthDigits   = 4
	checksumDigits = 2

	rowPrefixDigits = arrayIDDigits + rowNumDigits + lengthDigits

	// DefaultRowCapacity is the default initial capacity for the rows slice
	DefaultRowCapacity = 256
)

// Parse parses a .cyacd file from the given file path.
// Returns the complete firmware structure or an error if parsing fails.
//
// Example:
//
//	fw, err := cyacd.Parse("firmware.cyacd")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Silicon ID: %s\n", fw.Header.SiliconID)
func Parse(path string) (*Firmware, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses a .cyacd file from any io.Reader.
func ParseReader(r io.Reader) (*Firmware, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseBytes(raw)
}

// ParseBytes parses the raw text of a .cyacd file.
//
// Blank lines are discarded and every non-alphanumeric character is stripped
// from the remaining lines before the header and rows are decoded.
func ParseBytes(raw []byte) (*Firmware, error) {
	if len(raw) == 0 {
		return nil, &FileFormatError{Kind: EmptyFile}
	}

	lines := cleanLines(string(raw))
	if len(lines) == 0 {
		return nil, &FileFormatError{Kind: EmptyFile, Detail: "no content lines"}
	}

	header, err := ParseHeader(lines[0].text)
	if err != nil {
		if fe, ok := err.(*FileFormatError); ok {
			fe.Line = lines[0].number
		}
		return nil, err
	}

	fw := &Firmware{
		Header: *header,
		Rows:   make([]*Row, 0, DefaultRowCapacity),
	}

	var group *RowGroup
	for _, l := range lines[1:] {
		row, err := parseRow(l.text)
		if err != nil {
			if fe, ok := err.(*FileFormatError); ok {
				fe.Line = l.number
			}
			return nil, err
		}
		fw.Rows = append(fw.Rows, row)

		id := l.text[:arrayIDDigits]
		if group != nil && group.RowID == id {
			group.Count++
			continue
		}
		fw.RowGroups = append(fw.RowGroups, RowGroup{RowID: id, Count: 1})
		group = &fw.RowGroups[len(fw.RowGroups)-1]
	}

	return fw, nil
}

type line struct {
	number int
	text   string
}

// cleanLines splits text into lines, strips non-alphanumeric characters and
// drops lines left empty.
func cleanLines(text string) []line {
	var out []line
	for i, s := range strings.Split(text, "\n") {
		s = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, s)
		if s == "" {
			continue
		}
		out = append(out, line{number: i + 1, text: s})
	}
	return out
}

// ParseHeader parses the .cyacd file header.
//
// Header format (12 hex characters):
//
//	[SiliconID(8)][SiliconRev(2)][ChecksumType(2)]
//
// Example: "1E9602AA0000" = SiliconID "1e9602aa", Rev "00", Checksum "00".
// Characters beyond the first 12 are ignored.
func ParseHeader(text string) (*Header, error) {
	if len(text) < HeaderLength {
		return nil, &FileFormatError{
			Kind:   HeaderTooShort,
			Detail: fmt.Sprintf("got %d characters, expected %d", len(text), HeaderLength),
		}
	}

	h := &Header{
		SiliconID:    strings.ToLower(text[0:8]),
		SiliconRev:   strings.ToLower(text[8:10]),
		ChecksumType: strings.ToLower(text[10:12]),
	}
	if _, err := hex.DecodeString(text[:HeaderLength]); err != nil {
		return nil, &FileFormatError{Kind: InvalidHex, Detail: err.Error()}
	}
	return h, nil
}

// parseRow parses a single row line from the .cyacd file.
//
// Row format:
//
//	[ArrayID(2)][RowNum(4)][DataLen(4)][Data(DataLen*2)][Checksum(2)]
//
// RowNum and DataLen are read as plain hex numbers, most significant digit first.
//
// Example: "000000000401020304F2"
//
//	ArrayID: 0x00
//	RowNum: 0x0000
//	DataLen: 4
//	Data: [0x01, 0x02, 0x03, 0x04]
//	Checksum: 0xF2
func parseRow(text string) (*Row, error) {
	if len(text) < MinimumRowLength {
		return nil, &FileFormatError{
			Kind:   RowTooShort,
			Detail: fmt.Sprintf("got %d characters, minimum is %d", len(text), MinimumRowLength),
		}
	}

	arrayID, err := HexToInt(text[0:arrayIDDigits])
	if err != nil {
		return nil, invalidHex("array id", err)
	}
	rowNum, err := HexToInt(text[arrayIDDigits : arrayIDDigits+rowNumDigits])
	if err != nil {
		return nil, invalidHex("row number", err)
	}
	size, err := HexToInt(text[arrayIDDigits+rowNumDigits : rowPrefixDigits])
	if err != nil {
		return nil, invalidHex("data length", err)
	}

	digits := text[rowPrefixDigits : len(text)-checksumDigits]
	if len(digits) != int(size)*2 {
		return nil, &FileFormatError{
			Kind:   RowDataLengthMismatch,
			Detail: fmt.Sprintf("declared %d bytes, found %d hex digits", size, len(digits)),
		}
	}

	data, err := hex.DecodeString(digits)
	if err != nil {
		return nil, invalidHex("row data", err)
	}

	checksum, err := HexToInt(text[len(text)-checksumDigits:])
	if err != nil {
		return nil, invalidHex("checksum", err)
	}

	return &Row{
		ArrayID:  byte(arrayID),
		RowNum:   uint16(rowNum),
		Size:     uint16(size),
		Data:     data,
		Checksum: byte(checksum),
	}, nil
}

func invalidHex(field string, err error) error {
	return &FileFormatError{Kind: InvalidHex, Detail: fmt.Sprintf("%s: %v", field, err)}
}

// HexToInt converts a string of hex digits to its integer value.
// An empty string is an error.
func HexToInt(s string) (uint64, error) {
	return strconv.ParseUint(s, 16, 64)
}
