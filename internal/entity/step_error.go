package entity

import "fmt"

// StepError is the failure arm of a worker step's result. It names the
// service and step that failed so the terminal job record can report them.
// Permanent marks failures that cannot succeed on redelivery (for example
// an empty transcript); the consume runner skips retries for those.
type StepError struct {
	Service   string
	Step      string
	Err       error
	Permanent bool
}

func NewStepError(service, step string, err error) *StepError {
	return &StepError{Service: service, Step: step, Err: err}
}

func NewPermanentStepError(service, step string, err error) *StepError {
	return &StepError{Service: service, Step: step, Err: err, Permanent: true}
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// JobError converts the step error into the shape persisted on the job.
func (e *StepError) JobError() JobError {
	return JobError{Service: e.Service, Step: e.Step, Message: e.Err.Error()}
}
