package scanning

import "fmt"

// Stage identifies the part of a scan that failed.
type Stage string

const (
	StageRasterize Stage = "rasterize"
	StageRemote    Stage = "remote"
	StageLocal     Stage = "local"
)

// Error is a scan failure tagged with its stage.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the single message shown to the reviewer.
func (e *Error) UserMessage() string {
	switch e.Stage {
	case StageRasterize:
		return "Scan failed: the receipt file could not be read."
	case StageRemote:
		return "Scan failed: the online text recognition is not available."
	default:
		return "Scan failed: the text on the receipt could not be recognized."
	}
}

func stageError(stage Stage, err error) *Error {
	return &Error{Stage: stage, Err: err}
}
