package bootloader

import (
	"errors"
	"strings"
	"testing"
)

func TestSiliconMismatchError(t *testing.T) {
	err := &SiliconMismatchError{
		ExpectedID:  "1e9602aa",
		ExpectedRev: "00",
		ActualID:    "04c81193",
		ActualRev:   "11",
	}

	errMsg := err.Error()

	for _, want := range []string{"silicon mismatch", "1e9602aa rev 00", "04c81193 rev 11"} {
		if !strings.Contains(errMsg, want) {
			t.Errorf("error message should contain %q, got: %s", want, errMsg)
		}
	}
}

func TestChecksumMismatchError(t *testing.T) {
	err := &ChecksumMismatchError{
		ArrayID:  1,
		RowNum:   42,
		Expected: 0xAB,
		Actual:   0xCD,
	}

	errMsg := err.Error()

	for _, want := range []string{"array 1 row 42", "0xAB", "0xCD"} {
		if !strings.Contains(errMsg, want) {
			t.Errorf("error message should contain %q, got: %s", want, errMsg)
		}
	}
}

func TestVerificationError(t *testing.T) {
	err := &VerificationError{File: 1, Message: "application checksum is invalid"}

	errMsg := err.Error()

	if !strings.Contains(errMsg, "verification failed for file 2") {
		t.Errorf("error message should contain the 1-based file number, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "application checksum is invalid") {
		t.Errorf("error message should contain the message, got: %s", errMsg)
	}
}

func TestTransportError(t *testing.T) {
	cause := errors.New("not connected")
	err := &TransportError{Endpoint: "AA:BB", Command: "program row", Err: cause}

	if got := err.Error(); got != "write program row to AA:BB: not connected" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestPolicy(t *testing.T) {
	var zero Policy
	if zero.RowChecksumMismatch != Tolerate || zero.DecodeFailure != Tolerate || zero.CommandFailure != Tolerate {
		t.Errorf("zero Policy = %+v, want all tolerate", zero)
	}

	strict := StrictPolicy()
	if strict.RowChecksumMismatch != Abort || strict.DecodeFailure != Abort || strict.CommandFailure != Abort {
		t.Errorf("StrictPolicy() = %+v, want all abort", strict)
	}

	if Abort.String() != "abort" || Tolerate.String() != "tolerate" {
		t.Error("Action.String() wrong")
	}
}
