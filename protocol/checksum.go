package protocol

import "fmt"

// ChecksumKind selects the 16-bit packet checksum algorithm.
type ChecksumKind int

const (
	// ChecksumAdditive sums all bytes and takes the 2's complement
	ChecksumAdditive ChecksumKind = iota

	// ChecksumCRC16 uses CRC-16/ARC (reflected polynomial 0xA001, init 0)
	ChecksumCRC16

	// ChecksumNone writes a zero checksum
	ChecksumNone
)

func (k ChecksumKind) String() string {
	switch k {
	case ChecksumAdditive:
		return "additive"
	case ChecksumCRC16:
		return "crc16"
	case ChecksumNone:
		return "none"
	default:
		return fmt.Sprintf("ChecksumKind(%d)", int(k))
	}
}

// Checksum algorithm constants.
const (
	// ChecksumMask is the 16-bit mask used in checksum calculations
	ChecksumMask = 0xFFFF

	// CRC16Polynomial is the reflected CRC-16/ARC polynomial
	CRC16Polynomial = 0xA001

	// CRC16InitialValue is the CRC-16 initial value
	CRC16InitialValue = 0x0000
)

var crc16Table = makeCRC16Table()

func makeCRC16Table() [256]uint16 {
	var table [256]uint16
	for i := range table {
		crc := uint16(i)
		for bit := 0; bit < 8; bit++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ CRC16Polynomial
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// Checksum computes the packet checksum of data with the given algorithm.
func Checksum(kind ChecksumKind, data []byte) uint16 {
	switch kind {
	case ChecksumAdditive:
		return AdditiveChecksum(data)
	case ChecksumCRC16:
		return CRC16(data)
	default:
		return 0
	}
}

// AdditiveChecksum sums all bytes modulo 0x10000 and returns the 2's complement.
func AdditiveChecksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return 1 + (ChecksumMask ^ sum)
}

// CRC16 computes CRC-16/ARC: table driven, one byte per step, no final XOR.
func CRC16(data []byte) uint16 {
	crc := uint16(CRC16InitialValue)
	for _, b := range data {
		crc = (crc >> 8) ^ crc16Table[byte(crc)^b]
	}
	return crc
}

// VerifyTrailer reports whether the checksum field of a complete frame
// matches the bytes preceding it.
//
// For the additive algorithm the prefix sum plus the checksum wraps to zero;
// for CRC-16 running the CRC over the prefix and both checksum bytes
// (low byte first) leaves a zero residue.
func VerifyTrailer(kind ChecksumKind, frame []byte) bool {
	if len(frame) < MinFrameSize {
		return false
	}
	body := frame[:len(frame)-1]
	prefix := body[:len(body)-2]
	stored := uint16(body[len(body)-2]) | uint16(body[len(body)-1])<<8

	switch kind {
	case ChecksumAdditive:
		var sum uint16
		for _, b := range prefix {
			sum += uint16(b)
		}
		return sum+stored == 0
	case ChecksumCRC16:
		return CRC16(body) == 0
	default:
		return stored == 0
	}
}

// CalculateRowChecksum computes the 8-bit checksum for a row's data.
// This is used in .cyacd file format and for row verification.
//
// The checksum is calculated by summing all bytes and taking 2's complement.
func CalculateRowChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}

// CalculateRowChecksumWithMetadata computes the checksum the device reports
// for a programmed row.
//
// The device checksum adds to the row checksum from the .cyacd file:
//   - ArrayID (1 byte)
//   - RowNum (2 bytes)
//   - DataSize (2 bytes)
func CalculateRowChecksumWithMetadata(dataChecksum byte, arrayID byte, rowNum uint16, dataSize uint16) byte {
	sum := dataChecksum
	sum += arrayID
	sum += byte(rowNum)
	sum += byte(rowNum >> 8)
	sum += byte(dataSize)
	sum += byte(dataSize >> 8)
	return sum
}
