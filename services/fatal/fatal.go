// Package fatal is the uniform failure contract for boot steps.
//
// Steps return errors; Check turns any non-nil result into an *Error that
// records the step. Nothing in here stops the process except a
// Halter, and only the top-level driver is expected to call one.
package fatal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"audioboot-go/errcode"
)

// Step identifies one boot step.
type Step struct {
	Index int
	Name  string
}

func (s Step) String() string { return fmt.Sprintf("%02d:%s", s.Index, s.Name) }

// Error is a fatal step result.
type Error struct {
	Step Step
	Msg  string // optional human message
	Err  error
}

func (e *Error) Error() string {
	s := "step " + e.Step.String() + " failed"
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error      { return e.Err }
func (e *Error) Code() errcode.Code { return errcode.Of(e.Err) }

func check(step Step, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Step: step, Msg: msg, Err: err}
}

// Check returns nil on success and an *Error otherwise.
func Check(step Step, err error) error { return check(step, err, "") }

// CheckMsg is Check with a human message for the log.
func CheckMsg(step Step, err error, msg string) error { return check(step, err, msg) }

// Tolerate clears err when it carries one of the given codes.
func Tolerate(err error, codes ...errcode.Code) error {
	if errcode.In(err, codes...) {
		return nil
	}
	return err
}

// ---------------- Halting ----------------

// Report is what a Halter gets to see.
type Report struct {
	Step Step
	Code errcode.Code
	Msg  string
	Op   string // failing operation, when the cause carries one
	Err  error
}

// ReportOf builds a Report from any error; non-step errors get a zero Step.
func ReportOf(err error) Report {
	r := Report{Code: errcode.Of(err), Err: err}
	var fe *Error
	if errors.As(err, &fe) {
		r.Step, r.Msg = fe.Step, fe.Msg
		r.Code = fe.Code()
	}
	var ce *errcode.E
	if errors.As(err, &ce) {
		r.Op = ce.Op
	}
	return r
}

// Halter stops the device.
type Halter interface {
	Halt(Report)
}

// Halt hands a non-nil err to h. It reports whether it did.
func Halt(h Halter, err error) bool {
	if err == nil {
		return false
	}
	h.Halt(ReportOf(err))
	return true
}

// Trap logs the report and panics, leaving a stack for the debugger.
type Trap struct {
	Log zerolog.Logger
}

func (t Trap) Halt(r Report) {
	ev := t.Log.Error().
		Str("step", r.Step.Name).
		Int("index", r.Step.Index).
		Str("code", string(r.Code))
	if r.Op != "" {
		ev = ev.Str("op", r.Op)
	}
	if r.Err != nil {
		ev = ev.AnErr("cause", r.Err)
	}
	if r.Msg != "" {
		ev.Msg(r.Msg)
	} else {
		ev.Msg("fatal boot error")
	}
	panic(fmt.Sprintf("fatal: step %s: %s", r.Step, r.Code))
}

// Recorder collects reports instead of halting.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func (r *Recorder) Halt(rep Report) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
}

func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.reports...)
}
