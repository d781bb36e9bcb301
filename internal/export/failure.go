package export

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stage is a state of the export state machine.
type Stage string

const (
	StageReceived    Stage = "received"
	StagePassthrough Stage = "no-op-passthrough"
	StageDownloading Stage = "downloading-source"
	StageEncoding    Stage = "encoding"
	StageUploading   Stage = "uploading-result"
	StageDone        Stage = "done"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindIO         Kind = "io"
	KindEngine     Kind = "engine"
)

// Failure is the error returned by Export. Stage is the last state reached.
type Failure struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("export failed during %s (%s): %v", f.Stage, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(stage Stage, kind Kind, err error) error {
	return &Failure{Stage: stage, Kind: kind, Err: err}
}

// FailureKind returns the kind of a Failure anywhere in err's chain, or ""
// when err is not one.
func FailureKind(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
