package bootloader

import (
	"errors"
	"fmt"
)

// ErrNoImages is returned by New when no firmware image is given.
var ErrNoImages = errors.New("no firmware images")

// ErrAlreadyStarted is returned by Start when the update is not idle.
var ErrAlreadyStarted = errors.New("update already started")

// SiliconMismatchError indicates that the device identity doesn't match the firmware header.
type SiliconMismatchError struct {
	ExpectedID  string
	ExpectedRev string
	ActualID    string
	ActualRev   string
}

func (e *SiliconMismatchError) Error() string {
	return fmt.Sprintf("silicon mismatch: firmware expects %s rev %s, device has %s rev %s",
		e.ExpectedID, e.ExpectedRev, e.ActualID, e.ActualRev)
}

// ChecksumMismatchError indicates that a row checksum verification failed.
type ChecksumMismatchError struct {
	ArrayID  byte
	RowNum   uint16
	Expected byte
	Actual   byte
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for array %d row %d: expected 0x%02X, got 0x%02X",
		e.ArrayID, e.RowNum, e.Expected, e.Actual)
}

// VerificationError indicates that the application checksum verification failed.
type VerificationError struct {
	File    int
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("firmware verification failed for file %d: %s", e.File+1, e.Message)
}

// TransportError indicates that a command could not be written to the endpoint.
type TransportError struct {
	Endpoint string
	Command  string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("write %s to %s: %v", e.Command, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
