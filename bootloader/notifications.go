package bootloader

import "fmt"

// Notification is a decoded bootloader response, emitted by a Session for
// the command it last executed.
type Notification interface {
	notification()
}

// ErrorNotification reports a response that could not be decoded.
type ErrorNotification struct {
	Err error
}

// EnterBootloaderResult carries the device identity.
type EnterBootloaderResult struct {
	SiliconID  string
	SiliconRev string
}

// FlashSizeResult carries the writable row range of the queried array.
type FlashSizeResult struct {
	StartRow uint16
	EndRow   uint16
}

// SendDataResult reports whether a data chunk was accepted.
type SendDataResult struct {
	OK     bool
	Status byte
}

// ProgramRowResult reports whether a row was programmed.
type ProgramRowResult struct {
	OK     bool
	Status byte
}

// VerifyRowResult carries the checksum the device computed for a row.
type VerifyRowResult struct {
	Checksum byte
}

// VerifyChecksumResult reports the application checksum verdict.
type VerifyChecksumResult struct {
	Valid bool
}

// ExitBootloaderResult signals that the exit command was answered.
// Status is the raw status byte; a failed exit is still reported as a result.
type ExitBootloaderResult struct {
	Status byte
}

func (ErrorNotification) notification()     {}
func (EnterBootloaderResult) notification() {}
func (FlashSizeResult) notification()       {}
func (SendDataResult) notification()        {}
func (ProgramRowResult) notification()      {}
func (VerifyRowResult) notification()       {}
func (VerifyChecksumResult) notification()  {}
func (ExitBootloaderResult) notification()  {}

func (n ErrorNotification) String() string { return fmt.Sprintf("error(%v)", n.Err) }

func (n EnterBootloaderResult) String() string {
	return fmt.Sprintf("enter bootloader(silicon=%s rev=%s)", n.SiliconID, n.SiliconRev)
}

func (n FlashSizeResult) String() string {
	return fmt.Sprintf("flash size(%d-%d)", n.StartRow, n.EndRow)
}

func (n SendDataResult) String() string   { return fmt.Sprintf("send data(ok=%t)", n.OK) }
func (n ProgramRowResult) String() string { return fmt.Sprintf("program row(ok=%t)", n.OK) }

func (n VerifyRowResult) String() string {
	return fmt.Sprintf("verify row(checksum=0x%02X)", n.Checksum)
}

func (n VerifyChecksumResult) String() string {
	return fmt.Sprintf("verify checksum(valid=%t)", n.Valid)
}

func (n ExitBootloaderResult) String() string {
	return fmt.Sprintf("exit bootloader(status=0x%02X)", n.Status)
}
