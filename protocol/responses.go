package protocol

import (
	"encoding/binary"
	"fmt"
)

// Response layouts are read at fixed offsets of the raw notification value:
//
//	[SOP][STATUS][LEN][0x00][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
//
// The parsers below only check that the bytes they read are present; the
// trailer is not validated.

// ParseStatus returns the status byte of a response.
func ParseStatus(raw []byte) (byte, error) {
	if len(raw) < 2 {
		return 0, &DecodeError{Reason: fmt.Sprintf("response too short: got %d bytes, minimum is 2", len(raw))}
	}
	return raw[1], nil
}

// IsSuccess reports whether status is StatusSuccess.
func IsSuccess(status byte) bool {
	return status == StatusSuccess
}

// ParseDeviceInfo parses the Enter Bootloader response.
//
// Data format:
//
//	[SILICON_ID(4, little-endian)][SILICON_REV(1)]...
//
// The silicon ID is rendered most significant byte first as lower-case hex,
// matching the .cyacd header representation.
func ParseDeviceInfo(raw []byte) (*DeviceInfo, error) {
	if len(raw) < MinDeviceInfoResponseSize {
		return nil, &DecodeError{Reason: fmt.Sprintf("enter bootloader response: got %d bytes, minimum is %d", len(raw), MinDeviceInfoResponseSize)}
	}
	id := binary.LittleEndian.Uint32(raw[PayloadOffset : PayloadOffset+4])
	return &DeviceInfo{
		SiliconID:  fmt.Sprintf("%08x", id),
		SiliconRev: fmt.Sprintf("%02x", raw[PayloadOffset+4]),
	}, nil
}

// ParseFlashSize parses the Get Flash Size response.
//
// Data format:
//
//	[START_ROW(2)][END_ROW(2)]
func ParseFlashSize(raw []byte) (*FlashSize, error) {
	if len(raw) < PayloadOffset+4 {
		return nil, &DecodeError{Reason: fmt.Sprintf("get flash size response: got %d bytes, minimum is %d", len(raw), PayloadOffset+4)}
	}
	return &FlashSize{
		StartRow: binary.LittleEndian.Uint16(raw[PayloadOffset : PayloadOffset+2]),
		EndRow:   binary.LittleEndian.Uint16(raw[PayloadOffset+2 : PayloadOffset+4]),
	}, nil
}

// ParseResultByte returns the single result byte of a Verify Row or
// Verify Checksum response.
func ParseResultByte(raw []byte) (byte, error) {
	if len(raw) < ResultByteResponseSize {
		return 0, &DecodeError{Reason: fmt.Sprintf("response has no result byte: got %d bytes, minimum is %d", len(raw), ResultByteResponseSize)}
	}
	return raw[PayloadOffset], nil
}
