// Package simulator provides an in-memory Cypress bootloader that speaks the
// OTA packet protocol over a bootloader.Endpoint.
//
// Responses are delivered asynchronously, one at a time and in order, on a
// single goroutine, the way a BLE stack delivers characteristic notifications.
package simulator

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-cyacd-ota/bootloader"
	"github.com/moffa90/go-cyacd-ota/protocol"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("simulator: device closed")

// Config describes the simulated device and the faults it injects.
type Config struct {
	// Name is returned by ID
	Name string

	SiliconID         uint32
	SiliconRev        byte
	BootloaderVersion [3]byte

	// FlashRanges holds the writable row range of each flash array
	FlashRanges map[byte]protocol.FlashSize

	// Latency delays every response
	Latency time.Duration

	// FailImageChecksum makes Verify Checksum report an invalid application
	FailImageChecksum bool

	// CorruptRowChecksum makes Verify Row report a wrong checksum
	CorruptRowChecksum bool

	// DuplicateVerifyRow delivers every Verify Row response twice
	DuplicateVerifyRow bool

	// FailExit answers Exit Bootloader with an error status
	FailExit bool

	// Logger receives device-side events (optional)
	Logger bootloader.Logger
}

// DefaultConfig returns a PSoC 4 style device with one 512-row flash array.
func DefaultConfig() Config {
	return Config{
		Name:              "simulator",
		SiliconID:         0x1E9602AA,
		SiliconRev:        0x00,
		BootloaderVersion: [3]byte{0x01, 0x1E, 0x00},
		FlashRanges: map[byte]protocol.FlashSize{
			0: {StartRow: 0x0000, EndRow: 0x01FF},
		},
	}
}

type rowKey struct {
	arrayID byte
	rowNum  uint16
}

// Device is a simulated bootloader. It implements bootloader.Endpoint.
type Device struct {
	cfg Config

	mu           sync.Mutex
	inBootloader bool
	buffer       []byte
	flash        map[rowKey][]byte
	value        []byte
	notifying    bool
	handler      func([]byte)
	exited       bool
	exitStatus   byte
	writes       int
	closed       bool

	queue  [][]byte
	signal chan struct{}
	done   chan struct{}
}

var _ bootloader.Endpoint = (*Device)(nil)

// New creates a device and starts its notification goroutine.
// Call Close to stop it.
func New(cfg Config) *Device {
	if cfg.Name == "" {
		cfg.Name = "simulator"
	}
	if cfg.FlashRanges == nil {
		cfg.FlashRanges = DefaultConfig().FlashRanges
	}

	d := &Device{
		cfg:    cfg,
		flash:  make(map[rowKey][]byte),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.deliver()
	return d
}

// ID implements bootloader.Endpoint.
func (d *Device) ID() string {
	return d.cfg.Name
}

// OnNotify registers the receiver of notifications.
func (d *Device) OnNotify(h func([]byte)) {
	d.mu.Lock()
	d.handler = h
	d.mu.Unlock()
}

// SetNotify implements bootloader.Endpoint.
func (d *Device) SetNotify(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.notifying = enabled
	return nil
}

// Read implements bootloader.Endpoint; it returns the last response.
func (d *Device) Read() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return append([]byte(nil), d.value...), nil
}

// Write implements bootloader.Endpoint. The frame is executed immediately
// and its response is queued for delivery.
func (d *Device) Write(frame []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.writes++

	kind, ok := detectChecksum(frame)
	if !ok {
		d.debug("rejected frame with bad checksum", "frame", fmt.Sprintf("% X", frame))
		d.respond(protocol.ChecksumAdditive, protocol.ErrChecksum, nil)
		return nil
	}

	cmd, err := protocol.ParseCommand(frame, kind)
	if err != nil {
		d.debug("rejected frame", "error", err)
		d.respond(kind, protocol.ErrCommand, nil)
		return nil
	}
	d.execute(cmd, kind)
	return nil
}

// Close stops notification delivery. Queued responses are discarded.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	close(d.done)
	return nil
}

// Row returns the programmed data of a row.
func (d *Device) Row(arrayID byte, rowNum uint16) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.flash[rowKey{arrayID, rowNum}]
	return append([]byte(nil), data...), ok
}

// RowCount returns the number of programmed rows.
func (d *Device) RowCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.flash)
}

// Exited reports whether Exit Bootloader has been received.
func (d *Device) Exited() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exited
}

// Writes returns the number of frames written to the device.
func (d *Device) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func detectChecksum(frame []byte) (protocol.ChecksumKind, bool) {
	for _, kind := range []protocol.ChecksumKind{protocol.ChecksumAdditive, protocol.ChecksumCRC16} {
		if protocol.VerifyTrailer(kind, frame) {
			return kind, true
		}
	}
	return 0, false
}

// execute runs cmd. Must be called with d.mu held.
func (d *Device) execute(cmd protocol.Command, kind protocol.ChecksumKind) {
	if _, ok := cmd.(protocol.EnterBootloader); !ok && !d.inBootloader {
		d.respond(kind, protocol.ErrActive, nil)
		return
	}

	switch c := cmd.(type) {
	case protocol.EnterBootloader:
		d.inBootloader = true
		d.buffer = nil
		data := make([]byte, 8)
		binary.LittleEndian.PutUint32(data[0:4], d.cfg.SiliconID)
		data[4] = d.cfg.SiliconRev
		copy(data[5:], d.cfg.BootloaderVersion[:])
		d.debug("entered bootloader", "checksum", kind.String())
		d.respond(kind, protocol.StatusSuccess, data)

	case protocol.GetFlashSize:
		fs, ok := d.cfg.FlashRanges[c.ArrayID]
		if !ok {
			d.respond(kind, protocol.ErrArray, nil)
			return
		}
		data := make([]byte, 4)
		binary.LittleEndian.PutUint16(data[0:2], fs.StartRow)
		binary.LittleEndian.PutUint16(data[2:4], fs.EndRow)
		d.respond(kind, protocol.StatusSuccess, data)

	case protocol.SendData:
		d.buffer = append(d.buffer, c.Data...)
		d.respond(kind, protocol.StatusSuccess, nil)

	case protocol.ProgramRow:
		data := append(d.buffer, c.Data...)
		d.buffer = nil
		fs, ok := d.cfg.FlashRanges[c.ArrayID]
		if !ok {
			d.respond(kind, protocol.ErrArray, nil)
			return
		}
		if !fs.Contains(c.RowNum) {
			d.respond(kind, protocol.ErrRow, nil)
			return
		}
		d.flash[rowKey{c.ArrayID, c.RowNum}] = data
		d.debug("programmed row", "array_id", c.ArrayID, "row", c.RowNum, "bytes", len(data))
		d.respond(kind, protocol.StatusSuccess, nil)

	case protocol.VerifyRow:
		data, ok := d.flash[rowKey{c.ArrayID, c.RowNum}]
		if !ok {
			d.respond(kind, protocol.ErrRow, nil)
			return
		}
		checksum := protocol.CalculateRowChecksum(data)
		if d.cfg.CorruptRowChecksum {
			checksum++
		}
		d.respond(kind, protocol.StatusSuccess, []byte{checksum})
		if d.cfg.DuplicateVerifyRow {
			d.respond(kind, protocol.StatusSuccess, []byte{checksum})
		}

	case protocol.VerifyChecksum:
		var valid byte
		if len(d.flash) > 0 && !d.cfg.FailImageChecksum {
			valid = 1
		}
		d.respond(kind, protocol.StatusSuccess, []byte{valid})

	case protocol.ExitBootloader:
		d.inBootloader = false
		d.exited = true
		d.exitStatus = protocol.StatusSuccess
		if d.cfg.FailExit {
			d.exitStatus = protocol.ErrApp
		}
		d.debug("exit bootloader", "status", protocol.StatusName(d.exitStatus))
		d.respond(kind, d.exitStatus, nil)
	}
}

// respond stores the response as the current value and queues it.
// Must be called with d.mu held.
func (d *Device) respond(kind protocol.ChecksumKind, status byte, data []byte) {
	frame, err := protocol.BuildResponse(status, data, kind)
	if err != nil {
		d.debug("build response", "error", err)
		return
	}
	d.value = frame
	d.queue = append(d.queue, frame)
	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *Device) deliver() {
	for {
		select {
		case <-d.done:
			return
		case <-d.signal:
		}

		for {
			d.mu.Lock()
			if d.closed || len(d.queue) == 0 {
				d.mu.Unlock()
				break
			}
			frame := d.queue[0]
			d.queue = d.queue[1:]
			h, notifying := d.handler, d.notifying
			d.mu.Unlock()

			if d.cfg.Latency > 0 {
				time.Sleep(d.cfg.Latency)
			}
			if h != nil && notifying {
				h(append([]byte(nil), frame...))
			}
		}
	}
}

func (d *Device) debug(msg string, keysAndValues ...interface{}) {
	if d.cfg.Logger != nil {
		d.cfg.Logger.Debug(msg, append([]interface{}{"device", d.cfg.Name}, keysAndValues...)...)
	}
}
