package bootloader

// Endpoint is a single read/write/notify attribute channel to a bootloader.
//
// Implementations deliver inbound notification values by calling
// Session.HandleUpdate, one value at a time and in arrival order.
// The simulator package and the transport/ble package both provide one.
type Endpoint interface {
	// ID identifies the endpoint in logs and errors
	ID() string

	// Write sends a complete command frame
	Write(p []byte) error

	// Read returns the current attribute value
	Read() ([]byte, error)

	// SetNotify enables or disables value notifications
	SetNotify(enabled bool) error
}
