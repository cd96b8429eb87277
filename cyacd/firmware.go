package cyacd

import "github.com/moffa90/go-cyacd-ota/protocol"

// Firmware represents a complete parsed .cyacd firmware file.
// A Firmware is never modified after parsing.
type Firmware struct {
	// Header holds the target device metadata from the first line
	Header Header

	// Rows contains all flash rows to be programmed, in file order
	Rows []*Row

	// RowGroups lists runs of consecutive rows sharing the same row id
	// (the first two hex digits of the row line). Diagnostic only.
	RowGroups []RowGroup
}

// Header is the first line of a .cyacd file.
// All fields keep the lower-cased hex digits as they appear in the file.
type Header struct {
	// SiliconID is the device silicon ID (8 hex digits)
	SiliconID string

	// SiliconRev is the silicon revision (2 hex digits)
	SiliconRev string

	// ChecksumType selects the packet checksum algorithm (2 hex digits):
	//   "00" = Basic summation
	//   anything else = CRC-16
	ChecksumType string
}

// ChecksumKind returns the packet checksum algorithm selected by the header.
func (h Header) ChecksumKind() protocol.ChecksumKind {
	v, err := HexToInt(h.ChecksumType)
	if err == nil && v == 0 {
		return protocol.ChecksumAdditive
	}
	return protocol.ChecksumCRC16
}

// Row represents a single flash row from the .cyacd file.
type Row struct {
	// ArrayID is the flash array identifier
	ArrayID byte

	// RowNum is the flash row number
	RowNum uint16

	// Size is the declared data length in bytes; always equal to len(Data)
	Size uint16

	// Data is the flash row data to be programmed
	Data []byte

	// Checksum is the row checksum from the trailing two hex digits
	Checksum byte
}

// RowGroup counts consecutive rows with the same row id.
type RowGroup struct {
	RowID string
	Count int
}
