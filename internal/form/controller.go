package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amishk599/coldmail/internal/model"
)

// NoFileLabel is shown when no résumé is selected.
const NoFileLabel = "No file chosen"

// ErrInFlight is returned by Submit when a request is already outstanding.
// The call is ignored: no state changes and no request is sent.
var ErrInFlight = errors.New("submission already in flight")

// State is a snapshot of the form.
type State struct {
	FileLabel      string
	HasResume      bool
	JobDescription string
	Status         model.Status
	Result         string // set only when Status is StatusSucceeded
	ErrorMessage   string // set only when Status is StatusFailed
	Err            error  // cause of ErrorMessage
}

// Loading reports whether a request is outstanding.
func (s State) Loading() bool {
	return s.Status == model.StatusInFlight
}

// Controller owns the submission state: the selected résumé, the job
// description, and the outcome of the latest attempt. At most one request
// is outstanding at a time.
type Controller struct {
	generator model.EmailGenerator
	logger    *slog.Logger

	mu       sync.Mutex
	resume   *model.Resume
	jobDesc  string
	status   model.Status
	result   string
	errMsg   string
	err      error
	onChange func(State)
}

// NewController creates an idle controller that submits through generator.
func NewController(generator model.EmailGenerator, logger *slog.Logger) *Controller {
	return &Controller{
		generator: generator,
		logger:    logger,
		status:    model.StatusIdle,
	}
}

// OnChange registers fn to receive a snapshot after every status transition.
// fn runs with the controller unlocked.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// SetResumeFile replaces the selected résumé. nil clears the selection.
// No validation happens here.
func (c *Controller) SetResumeFile(r *model.Resume) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resume = r
}

// SetJobDescription replaces the job description verbatim.
func (c *Controller) SetJobDescription(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobDesc = text
}

// FileLabel returns the selected file name, or NoFileLabel.
func (c *Controller) FileLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileLabelLocked()
}

// CanSubmit is false while a request is in flight.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status != model.StatusInFlight
}

// State returns a snapshot of the form.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Submit validates the form and, if it passes, sends one request and blocks
// until it resolves. The returned error is nil only on success; the same
// outcome is reflected in the returned State.
func (c *Controller) Submit(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.status == model.StatusInFlight {
		s := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("submit ignored, request in flight")
		return s, ErrInFlight
	}

	c.result = ""
	c.errMsg = ""
	c.err = nil
	c.status = model.StatusValidating

	if err := c.validateLocked(); err != nil {
		s := c.failLocked(err)
		c.mu.Unlock()
		c.notify(s)
		return s, err
	}

	resume := *c.resume
	jobDesc := c.jobDesc
	c.status = model.StatusInFlight
	inFlight := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(inFlight)

	email, err := c.generator.GenerateEmail(ctx, resume, jobDesc)

	c.mu.Lock()
	var s State
	if err != nil {
		err = fmt.Errorf("generate email: %w", err)
		s = c.failLocked(err)
	} else {
		c.status = model.StatusSucceeded
		c.result = email
		s = c.snapshotLocked()
		c.logger.Debug("submission succeeded", "resume", resume.Name, "email_chars", len(email))
	}
	c.mu.Unlock()
	c.notify(s)
	return s, err
}

// validateLocked checks presence first, then the media type.
// The job description is not trimmed: whitespace counts as content.
func (c *Controller) validateLocked() error {
	if c.resume == nil || c.jobDesc == "" {
		return model.ErrMissingInput
	}
	if !c.resume.IsPDF() {
		return model.ErrNotPDF
	}
	return nil
}

func (c *Controller) failLocked(err error) State {
	c.status = model.StatusFailed
	c.result = ""
	c.err = err
	c.errMsg = model.DisplayMessage(err)
	c.logger.Debug("submission failed", "status", c.status.String(), "error", err)
	return c.snapshotLocked()
}

func (c *Controller) fileLabelLocked() string {
	if c.resume == nil {
		return NoFileLabel
	}
	return c.resume.Name
}

func (c *Controller) snapshotLocked() State {
	return State{
		FileLabel:      c.fileLabelLocked(),
		HasResume:      c.resume != nil,
		JobDescription: c.jobDesc,
		Status:         c.status,
		Result:         c.result,
		ErrorMessage:   c.errMsg,
		Err:            c.err,
	}
}

func (c *Controller) notify(s State) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}
