package bootloader

// State is the stage of an Updater.
type State int

const (
	// StateIdle is the state before Start
	StateIdle State = iota

	// StateEnteringBootloader waits for the Enter Bootloader answer
	StateEnteringBootloader

	// StateGettingFlashSize waits for the row range of the current array
	StateGettingFlashSize

	// StateSendingData waits for a Send Data acknowledgement
	StateSendingData

	// StateProgrammingRow waits for a Program Row acknowledgement
	StateProgrammingRow

	// StateVerifyingRow waits for the checksum of the row just programmed
	StateVerifyingRow

	// StateVerifyingChecksum waits for the application checksum result
	StateVerifyingChecksum

	// StateExitingBootloader waits for the Exit Bootloader answer
	StateExitingBootloader

	// StateDone means the bootloader was exited after the last image
	StateDone

	// StateFailed means the update stopped with an error
	StateFailed
)

var stateNames = [...]string{
	StateIdle:               "idle",
	StateEnteringBootloader: "entering bootloader",
	StateGettingFlashSize:   "getting flash size",
	StateSendingData:        "sending data",
	StateProgrammingRow:     "programming row",
	StateVerifyingRow:       "verifying row",
	StateVerifyingChecksum:  "verifying checksum",
	StateExitingBootloader:  "exiting bootloader",
	StateDone:               "done",
	StateFailed:             "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
