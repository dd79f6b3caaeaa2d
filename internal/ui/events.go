package ui

// Stage is one step of the symbol-loading pipeline.
type Stage uint8

const (
	StageNone Stage = iota
	// StageRead covers reading and decoding a unit file.
	StageRead
	// StageIndex covers building the name index over the units.
	StageIndex
	// StageCache covers writing the index cache back to disk.
	StageCache
)

// Status qualifies a stage event for one file.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event reports pipeline progress. File is empty for events that
// describe the whole pipeline rather than one unit file.
type Event struct {
	File   string
	Stage  Stage
	Status Status
	Err    error
}
