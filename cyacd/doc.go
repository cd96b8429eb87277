// Package cyacd provides parsing for Cypress .cyacd firmware files.
//
// # CYACD File Format
//
// The .cyacd file format is used to store bootloadable firmware for Cypress microcontrollers.
// It consists of a header line followed by multiple row lines, all hex-encoded.
// Blank lines are ignored and any character that is not a letter or a digit
// (':' prefixes, spaces, carriage returns) is stripped before decoding.
//
// Header Format (12 hex characters):
//
//	[SiliconID(8)][SiliconRev(2)][ChecksumType(2)]
//
// Example header:
//
//	1E9602AA0000
//	  1E9602AA = Silicon ID
//	  00 = Silicon Revision
//	  00 = Checksum Type (00 = basic summation, anything else = CRC-16)
//
// Header fields are kept as lower-cased hex strings so they can be compared
// directly with the identity reported by the bootloader.
//
// Row Format (variable length):
//
//	[ArrayID(2)][RowNum(4)][DataLen(4)][Data(DataLen*2)][Checksum(2)]
//
// Example row:
//
//	000000000401020304F2
//	  00 = Array ID
//	  0000 = Row Number
//	  0004 = Data Length (4 bytes)
//	  01020304 = Row Data
//	  F2 = Checksum
//
// # Usage
//
//	fw, err := cyacd.Parse("firmware.cyacd")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Silicon ID: %s\n", fw.Header.SiliconID)
//	fmt.Printf("Total rows: %d\n", len(fw.Rows))
//
// # Error Handling
//
// All parse failures are *FileFormatError values. Use errors.Is with the
// exported sentinels to test for a kind:
//
//	if errors.Is(err, cyacd.ErrRowDataLengthMismatch) { ... }
package cyacd
