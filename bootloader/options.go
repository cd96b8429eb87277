package bootloader

import "github.com/moffa90/go-cyacd-ota/protocol"

// Action is what the updater does when a recoverable fault occurs.
type Action int

const (
	// Tolerate logs the fault and carries on
	Tolerate Action = iota

	// Abort fails the update
	Abort
)

func (a Action) String() string {
	if a == Abort {
		return "abort"
	}
	return "tolerate"
}

// Policy selects how the updater reacts to faults that are not fatal by themselves.
//
// With the zero value every fault is tolerated: a row checksum mismatch is
// logged and the next row is written, while an undecodable response or a
// failed Send Data / Program Row is logged and dropped, which leaves the
// update waiting for a response that never comes.
type Policy struct {
	// RowChecksumMismatch applies when Verify Row returns an unexpected checksum
	RowChecksumMismatch Action

	// DecodeFailure applies when a response cannot be decoded
	DecodeFailure Action

	// CommandFailure applies when Send Data or Program Row returns an error status
	CommandFailure Action
}

// StrictPolicy aborts on every fault.
func StrictPolicy() Policy {
	return Policy{RowChecksumMismatch: Abort, DecodeFailure: Abort, CommandFailure: Abort}
}

// Config holds the session and updater configuration.
type Config struct {
	// ProgressCallback is called during the update to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ChunkSize is the maximum data size per Send Data command
	ChunkSize int

	// Policy selects the reaction to recoverable faults
	Policy Policy
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger:    nopLogger{},
		ChunkSize: protocol.MaxSendDataSize,
	}
}

// Option is a functional option for configuring a Session or an Updater.
type Option func(*Config)

// WithProgressCallback sets a callback function to track update progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger. A nil logger disables logging.
//
// Example:
//
//	session := bootloader.NewSession(endpoint, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		if logger == nil {
			logger = nopLogger{}
		}
		c.Logger = logger
	}
}

// WithChunkSize sets the maximum data size per Send Data command.
// Values outside 1..133 are ignored; the default is 133.
//
// Example:
//
//	u, err := bootloader.New(session, images, bootloader.WithChunkSize(64))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.MaxSendDataSize {
			c.ChunkSize = size
		}
	}
}

// WithPolicy replaces the whole fault policy.
func WithPolicy(p Policy) Option {
	return func(c *Config) {
		c.Policy = p
	}
}

// WithRowChecksumPolicy sets the reaction to row checksum mismatches.
func WithRowChecksumPolicy(a Action) Option {
	return func(c *Config) {
		c.Policy.RowChecksumMismatch = a
	}
}

// WithDecodeFailurePolicy sets the reaction to undecodable responses.
func WithDecodeFailurePolicy(a Action) Option {
	return func(c *Config) {
		c.Policy.DecodeFailure = a
	}
}

// WithCommandFailurePolicy sets the reaction to failed Send Data and Program Row commands.
func WithCommandFailurePolicy(a Action) Option {
	return func(c *Config) {
		c.Policy.CommandFailure = a
	}
}
