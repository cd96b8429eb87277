package bootloader

import "time"

// Phase names the stage an update is in when progress is reported.
type Phase string

const (
	// PhaseProgramming is reported after each row
	PhaseProgramming Phase = "programming"

	// PhaseVerifying is reported once a file's application checksum is valid
	PhaseVerifying Phase = "verifying"

	// PhaseComplete is reported once, when the bootloader has been exited
	PhaseComplete Phase = "complete"

	// PhaseFailed is reported once, with Err set
	PhaseFailed Phase = "failed"
)

// Progress contains information about the update progress.
// Passed to ProgressCallback after every completed row, every verified file
// and on terminal success or failure.
type Progress struct {
	Phase Phase

	// File is the 0-based index of the image being flashed
	File int

	// TotalFiles is the number of images in the update
	TotalFiles int

	// CurrentRow is the number of rows of the current file already handled
	CurrentRow int

	// TotalRows is the number of rows in the current file
	TotalRows int

	// Fraction is the completion of the current file (0.0 to 1.0)
	Fraction float64

	// Finished is true once the bootloader has been exited
	Finished bool

	// Err is set when the update failed; Finished stays false
	Err error

	// ElapsedTime is the time elapsed since the update started
	ElapsedTime time.Duration
}

// ProgressCallback is called to report update progress.
// It runs on the goroutine that delivers endpoint notifications, so
// implementations should return quickly.
//
// Example:
//
//	u, _ := bootloader.New(session, images,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] file %d/%d %.0f%%\n",
//	            p.Phase, p.File+1, p.TotalFiles, p.Fraction*100)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// session and the updater. This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
