package protocol

// DeviceInfo contains bootloader device identification information.
// Returned by the Enter Bootloader command.
type DeviceInfo struct {
	// SiliconID is the device silicon ID as 8 lower-case hex digits
	SiliconID string

	// SiliconRev is the silicon revision as 2 lower-case hex digits
	SiliconRev string
}

// FlashSize contains the valid flash row range for programming.
// Returned by the Get Flash Size command.
type FlashSize struct {
	// StartRow is the first programmable row number
	StartRow uint16

	// EndRow is the last programmable row number (inclusive)
	EndRow uint16
}

// Contains reports whether row lies within [StartRow, EndRow].
func (f FlashSize) Contains(row uint16) bool {
	return row >= f.StartRow && row <= f.EndRow
}
