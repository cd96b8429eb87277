package protocol

// Frame structure constants.
const (
	// StartOfPacket is the frame start marker (0x01)
	StartOfPacket = 0x01

	// EndOfPacket is the frame end marker (0x17)
	EndOfPacket = 0x17

	// MinFrameSize is the minimum frame size in bytes:
	// SOP(1) + CMD/STATUS(1) + LEN(1) + CMD_HI(1) + CHECKSUM(2) + EOP(1)
	MinFrameSize = 7

	// PayloadOffset is the index of the first payload byte in a frame
	PayloadOffset = 4
)

// Command codes.
const (
	// CmdVerifyChecksum verifies the entire application checksum
	CmdVerifyChecksum = 0x31

	// CmdGetFlashSize queries the valid flash row range for an array
	CmdGetFlashSize = 0x32

	// CmdSendData sends a data chunk (for large rows)
	CmdSendData = 0x37

	// CmdEnterBootloader enters bootloader mode
	CmdEnterBootloader = 0x38

	// CmdProgramRow programs a single flash row
	CmdProgramRow = 0x39

	// CmdVerifyRow gets the checksum of a programmed row
	CmdVerifyRow = 0x3A

	// CmdExitBootloader exits bootloader and launches application
	CmdExitBootloader = 0x3B
)

// Status/Error codes. Any value other than StatusSuccess is a failure.
const (
	// StatusSuccess indicates command was successfully received and executed
	StatusSuccess = 0x00

	// ErrLength indicates data amount is outside expected range
	ErrLength = 0x03

	// ErrData indicates data is not of proper form
	ErrData = 0x04

	// ErrCommand indicates command is not recognized
	ErrCommand = 0x05

	// ErrKey indicates bootloader key is invalid
	ErrKey = 0x06

	// ErrChecksum indicates packet checksum doesn't match expected value
	ErrChecksum = 0x08

	// ErrArray indicates flash array ID is not valid
	ErrArray = 0x09

	// ErrRow indicates flash row number is not valid
	ErrRow = 0x0A

	// ErrApp indicates application is not valid and cannot be set as active
	ErrApp = 0x0C

	// ErrActive indicates application is currently marked as active
	ErrActive = 0x0D

	// ErrUnknown indicates an unknown error occurred
	ErrUnknown = 0x0F
)

// MaxPayloadSize is the largest payload the one-byte length field can describe.
const MaxPayloadSize = 0xFF

// MaxSendDataSize is the largest chunk carried by a single Send Data packet.
const MaxSendDataSize = 133

// MaxProgramRowData is the largest data block a Program Row packet can carry
// (payload minus array ID and row number).
const MaxProgramRowData = MaxPayloadSize - 3

// Response sizes, in total frame bytes, used to filter bootloader responses.
const (
	// AckResponseSize is a response with no payload
	AckResponseSize = MinFrameSize

	// ResultByteResponseSize is a response carrying one result byte
	ResultByteResponseSize = MinFrameSize + 1

	// FlashSizeResponseLimit bounds Get Flash Size responses (exclusive)
	FlashSizeResponseLimit = 15

	// MinDeviceInfoResponseSize is the smallest Enter Bootloader response holding silicon data
	MinDeviceInfoResponseSize = 9
)
