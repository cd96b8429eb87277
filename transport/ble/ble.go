// Package ble connects to a Cypress bootloader over its BLE OTA service and
// exposes the OTA characteristic as a bootloader.Endpoint.
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/moffa90/go-cyacd-ota/bootloader"
)

// Cypress bootloader OTA service and its single command characteristic.
const (
	ServiceUUIDString        = "00060000-f8ce-11e4-abf4-0002a5d5c51b"
	CharacteristicUUIDString = "00060001-f8ce-11e4-abf4-0002a5d5c51b"
)

var (
	ServiceUUID        = mustParseUUID(ServiceUUIDString)
	CharacteristicUUID = mustParseUUID(CharacteristicUUIDString)
)

// DefaultScanTimeout bounds the scan when Options.ScanTimeout is zero.
const DefaultScanTimeout = 10 * time.Second

// readBufferSize is larger than any bootloader response.
const readBufferSize = 512

// ErrNotFound is returned when no matching peripheral was seen before the scan ended.
var ErrNotFound = errors.New("ble: no bootloader found")

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(fmt.Sprintf("ble: invalid UUID %q: %v", s, err))
	}
	return uuid
}

// Options selects the peripheral to connect to. With neither Address nor
// Name set, the first peripheral advertising the OTA service is used.
type Options struct {
	Address     string
	Name        string
	ScanTimeout time.Duration
	Logger      bootloader.Logger
}

// Endpoint is a connected OTA characteristic. It implements bootloader.Endpoint.
type Endpoint struct {
	address string
	device  bluetooth.Device
	char    bluetooth.DeviceCharacteristic
	logger  bootloader.Logger

	mu      sync.Mutex
	handler func([]byte)
}

var _ bootloader.Endpoint = (*Endpoint)(nil)

// Connect enables adapter, scans for a matching peripheral and connects to
// its OTA characteristic. Notifications stay disabled until SetNotify(true).
func Connect(ctx context.Context, adapter *bluetooth.Adapter, opts Options) (*Endpoint, error) {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = DefaultScanTimeout
	}

	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}

	result, err := scan(ctx, adapter, opts)
	if err != nil {
		return nil, err
	}
	address := result.Address.String()
	opts.Logger.Info("connecting", "address", address, "name", result.LocalName(), "rssi", result.RSSI)

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", address, err)
	}

	char, err := discover(device)
	if err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("discover %s: %w", address, err)
	}

	return &Endpoint{
		address: address,
		device:  device,
		char:    char,
		logger:  opts.Logger,
	}, nil
}

func scan(ctx context.Context, adapter *bluetooth.Adapter, opts Options) (bluetooth.ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.ScanTimeout)
	defer cancel()

	var (
		mu    sync.Mutex
		found *bluetooth.ScanResult
	)
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = adapter.StopScan()
		case <-stopped:
		}
	}()

	opts.Logger.Info("scanning", "address", opts.Address, "name", opts.Name, "timeout", opts.ScanTimeout.String())
	err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
		if !matches(opts, result.Address.String(), result.LocalName(), result.HasServiceUUID(ServiceUUID)) {
			return
		}
		mu.Lock()
		if found == nil {
			r := result
			found = &r
		}
		mu.Unlock()
		_ = a.StopScan()
	})
	close(stopped)
	if err != nil {
		return bluetooth.ScanResult{}, fmt.Errorf("scan: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if found == nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return bluetooth.ScanResult{}, ctx.Err()
		}
		return bluetooth.ScanResult{}, ErrNotFound
	}
	return *found, nil
}

// matches reports whether an advertisement selects the peripheral described by opts.
func matches(opts Options, address, name string, hasService bool) bool {
	switch {
	case opts.Address != "":
		return strings.EqualFold(opts.Address, address)
	case opts.Name != "":
		return name == opts.Name
	default:
		return hasService
	}
}

func discover(device bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{ServiceUUID})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("ota service: %w", err)
	}
	if len(services) == 0 {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("ota service %s not found", ServiceUUIDString)
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{CharacteristicUUID})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("ota characteristic: %w", err)
	}
	if len(chars) == 0 {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("ota characteristic %s not found", CharacteristicUUIDString)
	}
	return chars[0], nil
}

// ID implements bootloader.Endpoint; it returns the peripheral address.
func (e *Endpoint) ID() string {
	return e.address
}

// OnNotify registers the receiver of characteristic notifications.
func (e *Endpoint) OnNotify(h func([]byte)) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// Write implements bootloader.Endpoint with an acknowledged GATT write.
func (e *Endpoint) Write(p []byte) error {
	if _, err := e.char.Write(p); err != nil {
		return err
	}
	return nil
}

// Read implements bootloader.Endpoint.
func (e *Endpoint) Read() ([]byte, error) {
	buf := make([]byte, readBufferSize)
	n, err := e.char.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// SetNotify implements bootloader.Endpoint.
func (e *Endpoint) SetNotify(enabled bool) error {
	if !enabled {
		return e.char.EnableNotifications(nil)
	}
	return e.char.EnableNotifications(func(buf []byte) {
		// the stack may reuse buf after the callback returns
		value := append([]byte(nil), buf...)

		e.mu.Lock()
		h := e.handler
		e.mu.Unlock()

		if h != nil {
			h(value)
		} else {
			e.logger.Debug("notification without handler", "address", e.address, "bytes", len(value))
		}
	})
}

// Close disconnects from the peripheral.
func (e *Endpoint) Close() error {
	return e.device.Disconnect()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
