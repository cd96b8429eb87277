// Package protocol implements the Cypress bootloader packet codec used for
// over-the-air updates.
//
// # Protocol Overview
//
// Commands and responses share one frame layout:
//
//	Command:  [SOP][CMD_LO][LEN][CMD_HI][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
//	Response: [SOP][STATUS][LEN][0x00][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
//
// Where:
//   - SOP = Start of Packet (0x01)
//   - EOP = End of Packet (0x17)
//   - LEN = payload length (one byte)
//   - CHECKSUM = 16-bit checksum over every preceding byte, low byte first
//
// The checksum algorithm is chosen per firmware image: additive (2's
// complement of the byte sum) or CRC-16/ARC.
//
// # Commands
//
// Each command is a typed value; Encode turns it into a frame:
//
//	frame, err := protocol.Encode(protocol.ProgramRow{ArrayID: 0, RowNum: 12, Data: data}, protocol.ChecksumCRC16)
//
// Send Data packets carry at most MaxSendDataSize bytes; larger rows are
// streamed as several Send Data packets followed by one Program Row.
//
// # Responses
//
// Responses are read at fixed offsets:
//
//	status, err := protocol.ParseStatus(raw)
//	info, err := protocol.ParseDeviceInfo(raw)
//	size, err := protocol.ParseFlashSize(raw)
//
// Status codes other than StatusSuccess indicate errors; ProtocolError gives
// them a readable form:
//
//	err := &protocol.ProtocolError{Operation: "program row", StatusCode: status}
//	// err.Error() returns: "program row failed: checksum mismatch (0x08)"
package protocol
