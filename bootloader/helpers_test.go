package bootloader

import (
	"sync"
	"testing"

	"github.com/moffa90/go-cyacd-ota/cyacd"
	"github.com/moffa90/go-cyacd-ota/protocol"
)

// fakeEndpoint records every write; responses are fed by the test through
// Session.HandleUpdate.
type fakeEndpoint struct {
	mu       sync.Mutex
	writes   [][]byte
	notify   []bool
	writeErr error
	value    []byte

	// onSetNotify runs inside SetNotify, after the call is recorded
	onSetNotify func()
}

func (e *fakeEndpoint) ID() string { return "fake" }

func (e *fakeEndpoint) Write(p []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.writeErr != nil {
		return e.writeErr
	}
	e.writes = append(e.writes, append([]byte(nil), p...))
	return nil
}

func (e *fakeEndpoint) Read() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, nil
}

func (e *fakeEndpoint) SetNotify(enabled bool) error {
	e.mu.Lock()
	e.notify = append(e.notify, enabled)
	hook := e.onSetNotify
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (e *fakeEndpoint) notifyEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.notify) > 0 && e.notify[len(e.notify)-1]
}

func (e *fakeEndpoint) writeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.writes)
}

// lastCommand decodes the most recent write.
func (e *fakeEndpoint) lastCommand(t *testing.T, kind protocol.ChecksumKind) protocol.Command {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.writes) == 0 {
		t.Fatal("no command written")
	}
	cmd, err := protocol.ParseCommand(e.writes[len(e.writes)-1], kind)
	if err != nil {
		t.Fatalf("decode written command: %v", err)
	}
	return cmd
}

// respond delivers a response frame with the given status and data.
func respond(t *testing.T, s *Session, status byte, data ...byte) {
	t.Helper()
	frame, err := protocol.BuildResponse(status, data, protocol.ChecksumAdditive)
	if err != nil {
		t.Fatalf("build response: %v", err)
	}
	s.HandleUpdate(frame)
}

// deviceInfo is the Enter Bootloader payload for silicon 1e9602aa rev 00.
var deviceInfo = []byte{0xAA, 0x02, 0x96, 0x1E, 0x00, 0x01, 0x01, 0x00}

func flashRange(start, end uint16) []byte {
	return []byte{byte(start), byte(start >> 8), byte(end), byte(end >> 8)}
}

// makeRow builds a row whose file checksum is consistent with its data.
func makeRow(arrayID byte, rowNum uint16, data []byte) *cyacd.Row {
	raw := []byte{arrayID, byte(rowNum >> 8), byte(rowNum), byte(len(data) >> 8), byte(len(data))}
	raw = append(raw, data...)
	return &cyacd.Row{
		ArrayID:  arrayID,
		RowNum:   rowNum,
		Size:     uint16(len(data)),
		Data:     data,
		Checksum: protocol.CalculateRowChecksum(raw),
	}
}

func makeImage(checksumType string, rows ...*cyacd.Row) *cyacd.Firmware {
	return &cyacd.Firmware{
		Header: cyacd.Header{SiliconID: "1e9602aa", SiliconRev: "00", ChecksumType: checksumType},
		Rows:   rows,
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	debug  []string
	info   []string
	errors []string
}

func (l *recordingLogger) Debug(msg string, kv ...interface{}) {
	l.mu.Lock()
	l.debug = append(l.debug, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Info(msg string, kv ...interface{}) {
	l.mu.Lock()
	l.info = append(l.info, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Error(msg string, kv ...interface{}) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}
