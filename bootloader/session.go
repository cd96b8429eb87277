package bootloader

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/moffa90/go-cyacd-ota/protocol"
)

// Session owns the command/response cycle of one endpoint.
//
// Exactly one command is outstanding at a time: Execute replaces the previous
// command whether or not it was answered, and every value passed to
// HandleUpdate is decoded against the command executed last. The session
// has no timeout; a command that is never answered stays outstanding.
//
// Repeated deliveries of a verification answer are dropped whatever command
// is outstanding when they arrive. The last accepted Verify Row or Verify
// Checksum frame is kept until a different answer is accepted, and exact
// repeats of it are discarded. A Verify Checksum answer cannot be told apart
// from a repeated Verify Row frame with the same bytes, so in that case the
// Verify Checksum command is written again and its next answer is accepted.
type Session struct {
	ep     Endpoint
	logger Logger

	mu          sync.Mutex
	last        protocol.Command
	kind        protocol.ChecksumKind
	echo        []byte
	echoFromRow bool
	discovering bool
	discovered  bool
	found       []func(*Session)
	handler     func(Notification)
}

// NewSession creates a session over ep. Only WithLogger applies to sessions.
func NewSession(ep Endpoint, opts ...Option) *Session {
	if ep == nil {
		panic("endpoint cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		ep:     ep,
		logger: cfg.Logger,
	}
}

// Endpoint returns the endpoint the session drives.
func (s *Session) Endpoint() Endpoint {
	return s.ep
}

// SetHandler registers the receiver of decoded notifications.
func (s *Session) SetHandler(h func(Notification)) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// OnFound registers a callback invoked once the endpoint has been discovered
// and its notifications enabled. If that already happened the callback runs
// immediately.
func (s *Session) OnFound(fn func(*Session)) {
	s.mu.Lock()
	if s.discovered {
		s.mu.Unlock()
		fn(s)
		return
	}
	s.found = append(s.found, fn)
	s.mu.Unlock()
}

// Discovered reports whether the endpoint has been discovered.
func (s *Session) Discovered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discovered
}

// Execute encodes cmd with the given checksum algorithm, records it as the
// outstanding command and writes it to the endpoint.
func (s *Session) Execute(cmd protocol.Command, kind protocol.ChecksumKind) error {
	frame, err := protocol.Encode(cmd, kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.last = cmd
	s.kind = kind
	if _, ok := cmd.(protocol.VerifyRow); ok {
		s.echo = nil
	}
	s.mu.Unlock()

	s.logger.Debug("execute", "endpoint", s.ep.ID(), "command", cmd.Name(), "frame", fmt.Sprintf("% X", frame))

	if err := s.ep.Write(frame); err != nil {
		return &TransportError{Endpoint: s.ep.ID(), Command: cmd.Name(), Err: err}
	}
	return nil
}

// Poll reads the current endpoint value and handles it like a notification.
// Transports call it once after connecting so that the session discovers the endpoint.
func (s *Session) Poll() error {
	raw, err := s.ep.Read()
	if err != nil {
		return fmt.Errorf("read %s: %w", s.ep.ID(), err)
	}
	s.HandleUpdate(raw)
	return nil
}

// HandleUpdate processes a value received from the endpoint.
//
// Before any command has been executed the value only marks the endpoint as
// discovered: notifications are enabled and the OnFound callbacks run, both
// once. Afterwards the value is decoded against the outstanding command and
// at most one Notification is passed to the handler.
func (s *Session) HandleUpdate(raw []byte) {
	s.mu.Lock()
	if s.last == nil {
		if s.discovering || s.discovered {
			s.mu.Unlock()
			return
		}
		s.discovering = true
		s.mu.Unlock()

		s.discover()
		return
	}

	cmd, kind := s.last, s.kind
	switch s.repeat(cmd, raw) {
	case dropRepeat:
		s.mu.Unlock()
		s.logger.Debug("duplicate response dropped", "endpoint", s.ep.ID(), "command", cmd.Name())
		return
	case reissue:
		s.mu.Unlock()
		s.logger.Debug("verify checksum answer matches last verify row value, asking again", "endpoint", s.ep.ID())
		if err := s.Execute(cmd, kind); err != nil {
			s.notify(ErrorNotification{Err: err})
		}
		return
	}

	n := decodeResponse(cmd, raw)
	switch n.(type) {
	case nil:
	case VerifyRowResult:
		s.echo = append([]byte(nil), raw...)
		s.echoFromRow = true
	case VerifyChecksumResult:
		s.echo = append([]byte(nil), raw...)
		s.echoFromRow = false
	default:
		s.echo = nil
	}
	s.mu.Unlock()

	if n == nil {
		s.logger.Debug("response ignored", "endpoint", s.ep.ID(), "command", cmd.Name(), "raw", fmt.Sprintf("% X", raw))
		return
	}
	s.logger.Debug("notification", "endpoint", s.ep.ID(), "command", cmd.Name(), "notification", n)
	s.notify(n)
}

func (s *Session) notify(n Notification) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		handler(n)
	}
}

func (s *Session) discover() {
	s.logger.Info("endpoint discovered", "endpoint", s.ep.ID())
	if err := s.ep.SetNotify(true); err != nil {
		s.logger.Error("enable notifications", "endpoint", s.ep.ID(), "error", err)
	}

	s.mu.Lock()
	s.discovered = true
	callbacks := s.found
	s.found = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(s)
	}
}

type repeatAction int

const (
	acceptResponse repeatAction = iota
	dropRepeat
	reissue
)

// repeat classifies raw against the last accepted verification answer.
// Must be called with s.mu held.
func (s *Session) repeat(cmd protocol.Command, raw []byte) repeatAction {
	if s.echo == nil || !bytes.Equal(raw, s.echo) {
		return acceptResponse
	}
	if _, ok := cmd.(protocol.VerifyChecksum); ok && s.echoFromRow {
		s.echo = nil
		return reissue
	}
	return dropRepeat
}

// decodeResponse maps a raw response to the notification for cmd.
// It returns nil when the response produces no notification.
func decodeResponse(cmd protocol.Command, raw []byte) Notification {
	status, err := protocol.ParseStatus(raw)
	if err != nil {
		return ErrorNotification{Err: withCommand(cmd, err)}
	}

	if !protocol.IsSuccess(status) {
		switch cmd.(type) {
		case protocol.SendData:
			return SendDataResult{OK: false, Status: status}
		case protocol.ProgramRow:
			return ProgramRowResult{OK: false, Status: status}
		case protocol.ExitBootloader:
			return ExitBootloaderResult{Status: status}
		}
		return nil
	}

	switch cmd.(type) {
	case protocol.EnterBootloader:
		if len(raw) < protocol.MinDeviceInfoResponseSize {
			return lengthError(cmd, raw, fmt.Sprintf("more than %d", protocol.MinDeviceInfoResponseSize-1))
		}
		info, err := protocol.ParseDeviceInfo(raw)
		if err != nil {
			return ErrorNotification{Err: withCommand(cmd, err)}
		}
		return EnterBootloaderResult{SiliconID: info.SiliconID, SiliconRev: info.SiliconRev}

	case protocol.GetFlashSize:
		if len(raw) >= protocol.FlashSizeResponseLimit {
			return lengthError(cmd, raw, fmt.Sprintf("fewer than %d", protocol.FlashSizeResponseLimit))
		}
		fs, err := protocol.ParseFlashSize(raw)
		if err != nil {
			return ErrorNotification{Err: withCommand(cmd, err)}
		}
		return FlashSizeResult{StartRow: fs.StartRow, EndRow: fs.EndRow}

	case protocol.SendData:
		if len(raw) != protocol.AckResponseSize {
			return lengthError(cmd, raw, fmt.Sprintf("exactly %d", protocol.AckResponseSize))
		}
		return SendDataResult{OK: true}

	case protocol.ProgramRow:
		if len(raw) > protocol.AckResponseSize {
			return lengthError(cmd, raw, fmt.Sprintf("at most %d", protocol.AckResponseSize))
		}
		return ProgramRowResult{OK: true}

	case protocol.VerifyRow:
		if len(raw) != protocol.ResultByteResponseSize {
			return lengthError(cmd, raw, fmt.Sprintf("exactly %d", protocol.ResultByteResponseSize))
		}
		return VerifyRowResult{Checksum: raw[protocol.PayloadOffset]}

	case protocol.VerifyChecksum:
		b, err := protocol.ParseResultByte(raw)
		if err != nil {
			return ErrorNotification{Err: withCommand(cmd, err)}
		}
		return VerifyChecksumResult{Valid: b > 0}

	case protocol.ExitBootloader:
		return ExitBootloaderResult{Status: status}
	}
	return nil
}

func lengthError(cmd protocol.Command, raw []byte, want string) Notification {
	return ErrorNotification{Err: &protocol.DecodeError{
		Command: cmd.Name(),
		Reason:  fmt.Sprintf("got %d bytes, want %s", len(raw), want),
	}}
}

func withCommand(cmd protocol.Command, err error) error {
	if de, ok := err.(*protocol.DecodeError); ok && de.Command == "" {
		return &protocol.DecodeError{Command: cmd.Name(), Reason: de.Reason}
	}
	return err
}
