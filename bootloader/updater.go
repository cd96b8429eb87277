package bootloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-cyacd-ota/cyacd"
	"github.com/moffa90/go-cyacd-ota/protocol"
)

// Updater flashes one or more firmware images through a Session.
//
// It never blocks: Start issues the first command and returns, and every
// following command is issued from Handle when the notification for the
// previous one arrives. Each image re-enters the bootloader and uses the
// checksum algorithm declared in its own header.
//
// Updater is safe for concurrent use.
type Updater struct {
	session *Session
	images  []*cyacd.Firmware
	config  Config

	mu        sync.Mutex
	state     State
	kind      protocol.ChecksumKind
	fileIndex int
	rowIndex  int
	arrayID   byte
	rowRange  *protocol.FlashSize
	pending   []byte
	started   time.Time
	err       error
	done      chan struct{}
}

// New creates an Updater for images and registers it as the session's
// notification handler.
//
// Example:
//
//	fw, _ := cyacd.Parse("firmware.cyacd")
//	session := bootloader.NewSession(endpoint)
//	u, err := bootloader.New(session, []*cyacd.Firmware{fw},
//	    bootloader.WithProgressCallback(progressFunc),
//	)
//	session.OnFound(func(*bootloader.Session) { _ = u.Start() })
func New(session *Session, images []*cyacd.Firmware, opts ...Option) (*Updater, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	for i, fw := range images {
		if fw == nil {
			return nil, fmt.Errorf("image %d is nil", i+1)
		}
		if len(fw.Rows) == 0 {
			return nil, fmt.Errorf("image %d has no rows", i+1)
		}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	u := &Updater{
		session: session,
		images:  images,
		config:  cfg,
		done:    make(chan struct{}),
	}
	session.SetHandler(u.Handle)
	return u, nil
}

// Start enters the bootloader for the first image.
// A write failure fails the update and is also returned.
func (u *Updater) Start() error {
	u.mu.Lock()
	if u.state != StateIdle {
		u.mu.Unlock()
		return ErrAlreadyStarted
	}
	u.started = time.Now()
	u.config.Logger.Info("update started", "files", len(u.images), "endpoint", u.session.Endpoint().ID())
	cmd := u.startFileLocked()
	u.mu.Unlock()

	return u.execute(cmd)
}

// Handle advances the update with a notification from the session.
// Notifications that do not fit the current state are logged and ignored.
func (u *Updater) Handle(n Notification) {
	u.mu.Lock()
	if u.state == StateIdle || u.state.Terminal() {
		u.mu.Unlock()
		u.config.Logger.Debug("notification ignored", "state", u.State().String(), "notification", n)
		return
	}
	cmd, reports := u.stepLocked(n)
	u.mu.Unlock()

	for _, p := range reports {
		u.reportProgress(p)
	}
	if cmd != nil {
		_ = u.execute(cmd)
	}
}

// State returns the current state.
func (u *Updater) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Done is closed when the update reaches StateDone or StateFailed.
func (u *Updater) Done() <-chan struct{} {
	return u.done
}

// Err returns the terminal error, or nil.
func (u *Updater) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// Wait blocks until the update finishes or ctx is done. Cancelling ctx only
// stops the wait; the update itself is not interrupted.
func (u *Updater) Wait(ctx context.Context) error {
	select {
	case <-u.done:
		return u.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stepLocked applies n and returns the next command to execute, if any,
// together with the progress reports to emit.
func (u *Updater) stepLocked(n Notification) (protocol.Command, []Progress) {
	log := u.config.Logger

	switch n := n.(type) {
	case EnterBootloaderResult:
		if u.state != StateEnteringBootloader {
			break
		}
		h := u.image().Header
		log.Info("entered bootloader", "file", u.fileIndex+1, "silicon_id", n.SiliconID, "silicon_rev", n.SiliconRev)
		if n.SiliconID != h.SiliconID || n.SiliconRev != h.SiliconRev {
			return nil, u.failLocked(&SiliconMismatchError{
				ExpectedID:  h.SiliconID,
				ExpectedRev: h.SiliconRev,
				ActualID:    n.SiliconID,
				ActualRev:   n.SiliconRev,
			})
		}
		u.arrayID = u.image().Rows[u.rowIndex].ArrayID
		u.state = StateGettingFlashSize
		return protocol.GetFlashSize{ArrayID: u.arrayID}, nil

	case FlashSizeResult:
		if u.state != StateGettingFlashSize {
			break
		}
		log.Debug("flash size", "array_id", u.arrayID, "start_row", n.StartRow, "end_row", n.EndRow)
		u.rowRange = &protocol.FlashSize{StartRow: n.StartRow, EndRow: n.EndRow}
		return u.writeRowLocked(), nil

	case SendDataResult:
		if u.state != StateSendingData {
			break
		}
		if !n.OK {
			return nil, u.commandFailedLocked("send data", n.Status)
		}
		return u.nextChunkLocked(), nil

	case ProgramRowResult:
		if u.state != StateProgrammingRow {
			break
		}
		if !n.OK {
			return nil, u.commandFailedLocked("program row", n.Status)
		}
		row := u.row()
		u.state = StateVerifyingRow
		return protocol.VerifyRow{ArrayID: row.ArrayID, RowNum: row.RowNum}, nil

	case VerifyRowResult:
		if u.state != StateVerifyingRow {
			break
		}
		row := u.row()
		expected := protocol.CalculateRowChecksumWithMetadata(row.Checksum, row.ArrayID, row.RowNum, row.Size)
		if n.Checksum != expected {
			err := &ChecksumMismatchError{ArrayID: row.ArrayID, RowNum: row.RowNum, Expected: expected, Actual: n.Checksum}
			if u.config.Policy.RowChecksumMismatch == Abort {
				return nil, u.failLocked(err)
			}
			log.Error("row verification failed", "file", u.fileIndex+1, "error", err)
		}
		u.rowIndex++
		report := u.progressLocked(PhaseProgramming, float64(u.rowIndex)/float64(len(u.image().Rows)))
		return u.nextRowLocked(), []Progress{report}

	case VerifyChecksumResult:
		if u.state != StateVerifyingChecksum {
			break
		}
		if !n.Valid {
			return nil, u.failLocked(&VerificationError{File: u.fileIndex, Message: "application checksum is invalid"})
		}
		log.Info("file verified", "file", u.fileIndex+1, "rows", len(u.image().Rows))
		report := u.progressLocked(PhaseVerifying, 1)

		if u.fileIndex+1 < len(u.images) {
			u.fileIndex++
			return u.startFileLocked(), []Progress{report}
		}
		u.state = StateExitingBootloader
		return protocol.ExitBootloader{}, []Progress{report}

	case ExitBootloaderResult:
		if u.state != StateExitingBootloader {
			break
		}
		if !protocol.IsSuccess(n.Status) {
			log.Error("exit bootloader returned an error status", "status", protocol.StatusName(n.Status))
		}
		u.state = StateDone
		close(u.done)
		report := u.progressLocked(PhaseComplete, 1)
		report.Finished = true
		log.Info("update complete", "files", len(u.images), "elapsed", report.ElapsedTime.String())
		return nil, []Progress{report}

	case ErrorNotification:
		var te *TransportError
		if errors.As(n.Err, &te) || u.config.Policy.DecodeFailure == Abort {
			return nil, u.failLocked(n.Err)
		}
		log.Error("response dropped", "state", u.state.String(), "error", n.Err)
		return nil, nil
	}

	log.Debug("notification ignored", "state", u.state.String(), "notification", n)
	return nil, nil
}

// startFileLocked resets the cursors for the current image and returns the
// Enter Bootloader command.
func (u *Updater) startFileLocked() protocol.Command {
	u.rowIndex = 0
	u.arrayID = 0
	u.rowRange = nil
	u.pending = nil
	u.kind = u.image().Header.ChecksumKind()
	u.state = StateEnteringBootloader
	u.config.Logger.Debug("entering bootloader", "file", u.fileIndex+1, "checksum", u.kind.String())
	return protocol.EnterBootloader{}
}

// writeRowLocked returns the first command for the current row. Rows whose
// number, taken modulo 256, is outside the reported range are skipped.
func (u *Updater) writeRowLocked() protocol.Command {
	rows := u.image().Rows
	for u.rowIndex < len(rows) {
		row := rows[u.rowIndex]
		if row.ArrayID != u.arrayID || u.rowRange == nil {
			u.arrayID = row.ArrayID
			u.rowRange = nil
			u.state = StateGettingFlashSize
			return protocol.GetFlashSize{ArrayID: row.ArrayID}
		}
		if !u.rowRange.Contains(row.RowNum % 256) {
			u.config.Logger.Debug("row skipped", "array_id", row.ArrayID, "row", row.RowNum,
				"start_row", u.rowRange.StartRow, "end_row", u.rowRange.EndRow)
			u.rowIndex++
			continue
		}
		u.pending = row.Data
		return u.nextChunkLocked()
	}
	u.state = StateVerifyingChecksum
	return protocol.VerifyChecksum{}
}

// nextRowLocked moves on after a verified row.
func (u *Updater) nextRowLocked() protocol.Command {
	if u.rowIndex < len(u.image().Rows) {
		return u.writeRowLocked()
	}
	u.state = StateVerifyingChecksum
	return protocol.VerifyChecksum{}
}

// nextChunkLocked sends the pending row data in ChunkSize slices and
// programs the row with the remainder.
func (u *Updater) nextChunkLocked() protocol.Command {
	if len(u.pending) > u.config.ChunkSize {
		chunk := u.pending[:u.config.ChunkSize]
		u.pending = u.pending[u.config.ChunkSize:]
		u.state = StateSendingData
		return protocol.SendData{Data: chunk}
	}

	row := u.row()
	data := u.pending
	u.pending = nil
	u.state = StateProgrammingRow
	return protocol.ProgramRow{ArrayID: row.ArrayID, RowNum: row.RowNum, Data: data}
}

func (u *Updater) commandFailedLocked(op string, status byte) []Progress {
	err := &protocol.ProtocolError{Operation: op, StatusCode: status}
	if u.config.Policy.CommandFailure == Abort {
		return u.failLocked(err)
	}
	u.config.Logger.Error("command failed", "file", u.fileIndex+1, "row", u.row().RowNum, "error", err)
	return nil
}

func (u *Updater) failLocked(err error) []Progress {
	u.state = StateFailed
	u.err = err
	close(u.done)
	u.config.Logger.Error("update failed", "file", u.fileIndex+1, "error", err)

	report := u.progressLocked(PhaseFailed, 0)
	report.Err = err
	return []Progress{report}
}

func (u *Updater) execute(cmd protocol.Command) error {
	u.mu.Lock()
	kind := u.kind
	u.mu.Unlock()

	err := u.session.Execute(cmd, kind)
	if err == nil {
		return nil
	}

	u.mu.Lock()
	if u.state.Terminal() {
		u.mu.Unlock()
		return err
	}
	reports := u.failLocked(err)
	u.mu.Unlock()

	for _, p := range reports {
		u.reportProgress(p)
	}
	return err
}

func (u *Updater) image() *cyacd.Firmware {
	return u.images[u.fileIndex]
}

func (u *Updater) row() *cyacd.Row {
	return u.image().Rows[u.rowIndex]
}

func (u *Updater) progressLocked(phase Phase, fraction float64) Progress {
	return Progress{
		Phase:       phase,
		File:        u.fileIndex,
		TotalFiles:  len(u.images),
		CurrentRow:  u.rowIndex,
		TotalRows:   len(u.image().Rows),
		Fraction:    fraction,
		ElapsedTime: time.Since(u.started),
	}
}

// reportProgress calls the progress callback if configured.
func (u *Updater) reportProgress(p Progress) {
	if u.config.ProgressCallback != nil {
		u.config.ProgressCallback(p)
	}
}
