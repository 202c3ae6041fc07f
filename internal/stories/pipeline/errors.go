package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrTransientFetch marks a network, timeout or non-2xx failure of a
	// marketplace request. The category is skipped for this pass.
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrPublish marks an item the broker client gave up on.
	ErrPublish = errors.New("publish failed")

	// ErrInvalidRecord marks a fetched record that cannot become an item,
	// e.g. one without a usable price. The record is skipped.
	ErrInvalidRecord = errors.New("invalid record")
)

type Stage string

const (
	StageBuild     Stage = "build"
	StageFetch     Stage = "fetch"
	StageFilter    Stage = "filter"
	StageEnrich    Stage = "enrich"
	StageTransform Stage = "transform"
	StagePublish   Stage = "publish"
)

// Failure is a defect that escaped a pass. It is the only error kind that
// consumes a worker restart.
type Failure struct {
	Source string
	Stage  Stage
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s pipeline failed at %s: %v", f.Source, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Transient wraps err as a fetch failure that does not escape the pass.
func Transient(err error) error {
	return fmt.Errorf("%w: %v", ErrTransientFetch, err)
}

// Invalid wraps a reason as ErrInvalidRecord.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}
