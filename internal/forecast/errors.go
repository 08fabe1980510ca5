package forecast

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when stock or consumption values cannot be forecast.
var ErrInvalidInput = errors.New("invalid forecast input")

// Stage names the step of an item forecast that failed.
type Stage string

const (
	StageAggregation Stage = "aggregation"
	StageProjection  Stage = "projection"
	StageScheduling  Stage = "scheduling"
)

// StageError carries the failing item and stage of a per-item forecast failure.
type StageError struct {
	ItemID int64
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("forecast item %d: %s failed: %v", e.ItemID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(itemID int64, stage Stage, err error) error {
	return &StageError{ItemID: itemID, Stage: stage, Err: err}
}
