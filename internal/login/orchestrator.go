// Package login implements the credential-entry flow: control enablement,
// the single-submission guard, the busy indicator lifecycle, and failure
// classification.
package login

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/loginchallenge/internal/auth"
	"github.com/Dicklesworthstone/loginchallenge/internal/diag"
)

// State is the orchestrator's position in the login flow.
type State int

const (
	// StateInteractive - controls responsive, nothing in flight.
	StateInteractive State = iota
	// StateSubmitting - exactly one authentication call in flight.
	StateSubmitting
	// StateAuthenticated - terminal for this screen instance.
	StateAuthenticated
	// StateFailed - transient while a failure is being applied.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInteractive:
		return "INTERACTIVE"
	case StateSubmitting:
		return "SUBMITTING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Credentials are read from the fields at execution time and never stored.
type Credentials struct {
	Identifier string
	Secret     string
}

// Controls is the enablement of the three interactive controls.
type Controls struct {
	Identifier bool
	Secret     bool
	Submit     bool
}

// Config configures an Orchestrator.
type Config struct {
	// Presenter receives success/failure transitions. Required.
	Presenter Presenter

	// Overlay is the busy indicator. May be nil.
	Overlay Overlay

	// Sink records failures for diagnosis. Nil records nothing.
	Sink diag.Sink

	// RecordDiscarded also records failures whose outcome arrived after
	// Detach. Off by default.
	RecordDiscarded bool

	// Logger for structured logging.
	Logger *slog.Logger

	// Now is the clock used for diagnostic timestamps.
	Now func() time.Time
}

// Orchestrator drives one login screen instance. It is not safe for
// concurrent use: every method must be called from the goroutine that owns
// the screen.
type Orchestrator struct {
	state     State
	controls  Controls
	busy      *Busy
	presenter Presenter
	sink      diag.Sink
	logger    *slog.Logger
	now       func() time.Time

	recordDiscarded bool
	detached        bool
	attemptID       string
}

// New creates an orchestrator in StateInteractive with every control
// disabled until Appear is called.
func New(cfg Config) *Orchestrator {
	presenter := cfg.Presenter
	if presenter == nil {
		presenter = PresenterFuncs{}
	}
	sink := cfg.Sink
	if sink == nil {
		sink = diag.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		state:           StateInteractive,
		busy:            NewBusy(cfg.Overlay),
		presenter:       presenter,
		sink:            sink,
		logger:          logger,
		now:             now,
		recordDiscarded: cfg.RecordDiscarded,
	}
}

// State returns the current state.
func (o *Orchestrator) State() State { return o.state }

// Controls returns the current control enablement.
func (o *Orchestrator) Controls() Controls { return o.controls }

// Busy reports whether the busy indicator is held.
func (o *Orchestrator) Busy() bool { return o.busy.Held() }

// Appear resynchronizes control state when the screen becomes visible.
// Enablement may have drifted while no change events were delivered.
func (o *Orchestrator) Appear(identifier, secret string) {
	if o.state != StateInteractive {
		return
	}
	o.controls = Controls{
		Identifier: true,
		Secret:     true,
		Submit:     Enabled(identifier, secret),
	}
}

// FieldsChanged recomputes submit enablement after an edit.
func (o *Orchestrator) FieldsChanged(identifier, secret string) {
	if o.state != StateInteractive {
		return
	}
	o.controls.Submit = Enabled(identifier, secret)
}

// Trigger is the trigger-time check: the UI should schedule execution only
// when it returns true. Execution re-checks in Begin, since state can change
// in between.
func (o *Orchestrator) Trigger() bool {
	return o.state == StateInteractive && o.controls.Submit
}

// Begin is the execution-time check. It silently drops the request unless
// the submit control is still enabled and both freshly read values are
// non-empty. On acceptance it enters StateSubmitting, shows the busy
// indicator, and disables every control.
func (o *Orchestrator) Begin(identifier, secret string) (Credentials, bool) {
	if o.detached || o.state != StateInteractive || !o.controls.Submit {
		o.logger.Debug("submit dropped", "state", o.state.String(), "submit_enabled", o.controls.Submit)
		return Credentials{}, false
	}
	if identifier == "" || secret == "" {
		o.logger.Debug("submit dropped", "reason", "empty field")
		return Credentials{}, false
	}

	o.controls = Controls{}
	o.state = StateSubmitting
	o.attemptID = uuid.NewString()
	o.busy.Acquire()

	o.logger.Debug("submit accepted", "attempt_id", o.attemptID)
	return Credentials{Identifier: identifier, Secret: secret}, true
}

// Complete applies the outcome of the call started by Begin. It must run
// on the screen's goroutine. A Complete without a matching Begin is ignored.
func (o *Orchestrator) Complete(ctx context.Context, err error) {
	if o.state != StateSubmitting {
		o.logger.Warn("outcome without submission ignored", "state", o.state.String())
		return
	}
	attemptID := o.attemptID
	o.attemptID = ""

	if err == nil {
		o.busy.Release()
		o.state = StateAuthenticated
		if o.detached {
			o.logger.Debug("outcome discarded", "attempt_id", attemptID, "result", "success")
			return
		}
		o.presenter.OnAuthenticated()
		return
	}

	o.state = StateFailed
	c := Classify(err)

	if !o.detached || o.recordDiscarded {
		o.sink.Record(ctx, diag.Entry{
			AttemptID: attemptID,
			Kind:      c.Kind.String(),
			Detail:    err.Error(),
			Discarded: o.detached,
			At:        o.now(),
		})
	}

	o.busy.Release()
	o.controls = Controls{Identifier: true, Secret: true, Submit: true}
	o.state = StateInteractive

	if o.detached {
		o.logger.Debug("outcome discarded", "attempt_id", attemptID, "kind", c.Kind.String())
		return
	}
	o.presenter.OnFailed(c)
}

// Submit runs one full episode synchronously: Begin, the external call,
// then Complete. It reports whether the request was accepted.
func (o *Orchestrator) Submit(ctx context.Context, a auth.Authenticator, identifier, secret string) bool {
	creds, ok := o.Begin(identifier, secret)
	if !ok {
		return false
	}
	err := a.LogIn(ctx, creds.Identifier, creds.Secret)
	o.Complete(ctx, err)
	return true
}

// Detach marks the hosting screen as torn down. An in-flight call is not
// cancelled; its outcome is dropped without reaching the presenter.
func (o *Orchestrator) Detach() {
	o.detached = true
}

// Detached reports whether Detach has been called.
func (o *Orchestrator) Detached() bool { return o.detached }
