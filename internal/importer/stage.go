package importer

import "fmt"

// Stage is a step of an import. Stages only move forward.
type Stage int

const (
	StagePrepare Stage = iota
	StageValidate
	StageExtract
	StageManifest
	StageDecodeCourse
	StageCreateCourse
	StageModules
	StageParentLinks
	StageDone
)

var stageNames = [...]string{
	StagePrepare:      "prepare",
	StageValidate:     "validate",
	StageExtract:      "extract",
	StageManifest:     "manifest",
	StageDecodeCourse: "decode course",
	StageCreateCourse: "create course",
	StageModules:      "modules",
	StageParentLinks:  "parent links",
	StageDone:         "done",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError records the stage an import failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }
