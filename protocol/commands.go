package protocol

import (
	"fmt"
)

// Command is one bootloader request. The concrete types are
// EnterBootloader, GetFlashSize, SendData, ProgramRow, VerifyRow,
// VerifyChecksum and ExitBootloader.
type Command interface {
	// Opcode returns the 16-bit command code
	Opcode() uint16

	// Name returns a short human-readable command name
	Name() string

	payload() ([]byte, error)
}

// EnterBootloader starts a bootloading session. The response carries
// the device silicon ID and revision.
type EnterBootloader struct{}

// GetFlashSize queries the writable row range of a flash array.
type GetFlashSize struct {
	ArrayID byte
}

// SendData buffers a chunk of row data in the bootloader without programming it.
type SendData struct {
	Data []byte
}

// ProgramRow programs a row with the buffered data followed by Data.
type ProgramRow struct {
	ArrayID byte
	RowNum  uint16
	Data    []byte
}

// VerifyRow asks the device for the checksum of a programmed row.
type VerifyRow struct {
	ArrayID byte
	RowNum  uint16
}

// VerifyChecksum asks the device to verify the whole application checksum.
type VerifyChecksum struct{}

// ExitBootloader leaves the bootloader and launches the application.
type ExitBootloader struct{}

func (EnterBootloader) Opcode() uint16 { return CmdEnterBootloader }
func (GetFlashSize) Opcode() uint16    { return CmdGetFlashSize }
func (SendData) Opcode() uint16        { return CmdSendData }
func (ProgramRow) Opcode() uint16      { return CmdProgramRow }
func (VerifyRow) Opcode() uint16       { return CmdVerifyRow }
func (VerifyChecksum) Opcode() uint16  { return CmdVerifyChecksum }
func (ExitBootloader) Opcode() uint16  { return CmdExitBootloader }

func (EnterBootloader) Name() string { return "enter bootloader" }
func (GetFlashSize) Name() string    { return "get flash size" }
func (SendData) Name() string        { return "send data" }
func (ProgramRow) Name() string      { return "program row" }
func (VerifyRow) Name() string       { return "verify row" }
func (VerifyChecksum) Name() string  { return "verify checksum" }
func (ExitBootloader) Name() string  { return "exit bootloader" }

func (EnterBootloader) payload() ([]byte, error) { return nil, nil }
func (VerifyChecksum) payload() ([]byte, error)  { return nil, nil }
func (ExitBootloader) payload() ([]byte, error)  { return nil, nil }

func (c GetFlashSize) payload() ([]byte, error) {
	return []byte{c.ArrayID}, nil
}

func (c SendData) payload() ([]byte, error) {
	if len(c.Data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	if len(c.Data) > MaxSendDataSize {
		return nil, fmt.Errorf("data length %d exceeds maximum %d bytes", len(c.Data), MaxSendDataSize)
	}
	return c.Data, nil
}

func (c ProgramRow) payload() ([]byte, error) {
	if len(c.Data) > MaxProgramRowData {
		return nil, fmt.Errorf("data length %d exceeds maximum %d bytes", len(c.Data), MaxProgramRowData)
	}
	p := make([]byte, 0, 3+len(c.Data))
	p = append(p, c.ArrayID, byte(c.RowNum), byte(c.RowNum>>8))
	return append(p, c.Data...), nil
}

func (c VerifyRow) payload() ([]byte, error) {
	return []byte{c.ArrayID, byte(c.RowNum), byte(c.RowNum >> 8)}, nil
}

// Encode constructs the wire frame for cmd.
//
// Frame structure:
//
//	[SOP][CMD_LO][LEN][CMD_HI][PAYLOAD...][CHECKSUM_L][CHECKSUM_H][EOP]
//
// The checksum covers every byte before the checksum field, SOP included.
func Encode(cmd Command, kind ChecksumKind) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("command cannot be nil")
	}
	payload, err := cmd.payload()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return buildFrame(byte(cmd.Opcode()), byte(cmd.Opcode()>>8), payload, kind), nil
}

// BuildResponse constructs a response frame the way a bootloader does:
// the status byte replaces the command code.
func BuildResponse(status byte, data []byte, kind ChecksumKind) ([]byte, error) {
	if len(data) > MaxPayloadSize {
		return nil, fmt.Errorf("data length %d exceeds maximum %d bytes", len(data), MaxPayloadSize)
	}
	return buildFrame(status, 0, data, kind), nil
}

func buildFrame(lo, hi byte, payload []byte, kind ChecksumKind) []byte {
	frame := make([]byte, 0, MinFrameSize+len(payload))
	frame = append(frame, StartOfPacket, lo, byte(len(payload)), hi)
	frame = append(frame, payload...)

	checksum := Checksum(kind, frame)
	return append(frame, byte(checksum), byte(checksum>>8), EndOfPacket)
}

// ParseCommand decodes a command frame into its Command value.
// It validates framing, length and checksum; it is the device side of Encode.
func ParseCommand(frame []byte, kind ChecksumKind) (Command, error) {
	if len(frame) < MinFrameSize {
		return nil, &DecodeError{Reason: fmt.Sprintf("frame too short: got %d bytes, minimum is %d", len(frame), MinFrameSize)}
	}
	if frame[0] != StartOfPacket {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid start of packet: got 0x%02X, expected 0x%02X", frame[0], StartOfPacket)}
	}
	if frame[len(frame)-1] != EndOfPacket {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid end of packet: got 0x%02X, expected 0x%02X", frame[len(frame)-1], EndOfPacket)}
	}
	n := int(frame[2])
	if len(frame) != MinFrameSize+n {
		return nil, &DecodeError{Reason: fmt.Sprintf("frame length mismatch: got %d bytes, expected %d", len(frame), MinFrameSize+n)}
	}
	if !VerifyTrailer(kind, frame) {
		return nil, &DecodeError{Reason: "checksum mismatch"}
	}

	p := frame[PayloadOffset : PayloadOffset+n]
	op := uint16(frame[1]) | uint16(frame[3])<<8
	switch op {
	case CmdEnterBootloader:
		return EnterBootloader{}, nil
	case CmdVerifyChecksum:
		return VerifyChecksum{}, nil
	case CmdExitBootloader:
		return ExitBootloader{}, nil
	case CmdGetFlashSize:
		if n != 1 {
			return nil, &DecodeError{Reason: fmt.Sprintf("get flash size payload: got %d bytes, expected 1", n)}
		}
		return GetFlashSize{ArrayID: p[0]}, nil
	case CmdSendData:
		return SendData{Data: append([]byte(nil), p...)}, nil
	case CmdProgramRow:
		if n < 3 {
			return nil, &DecodeError{Reason: fmt.Sprintf("program row payload: got %d bytes, minimum is 3", n)}
		}
		return ProgramRow{
			ArrayID: p[0],
			RowNum:  uint16(p[1]) | uint16(p[2])<<8,
			Data:    append([]byte(nil), p[3:]...),
		}, nil
	case CmdVerifyRow:
		if n != 3 {
			return nil, &DecodeError{Reason: fmt.Sprintf("verify row payload: got %d bytes, expected 3", n)}
		}
		return VerifyRow{ArrayID: p[0], RowNum: uint16(p[1]) | uint16(p[2])<<8}, nil
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown command 0x%04X", op)}
	}
}

// SameCommand reports whether a and b are the same request, payload included.
func SameCommand(a, b Command) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Opcode() != b.Opcode() {
		return false
	}
	pa, errA := a.payload()
	pb, errB := b.payload()
	if errA != nil || errB != nil {
		return false
	}
	return string(pa) == string(pb)
}
