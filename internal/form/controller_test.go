package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/coldmail/internal/model"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- Fakes ---

// StubGenerator returns a canned email or error and counts calls.
type StubGenerator struct {
	Email string
	Err   error

	calls       atomic.Int32
	lastResume  model.Resume
	lastJobDesc string
	mu          sync.Mutex
}

func (g *StubGenerator) GenerateEmail(_ context.Context, r model.Resume, jobDesc string) (string, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.lastResume = r
	g.lastJobDesc = jobDesc
	g.mu.Unlock()
	return g.Email, g.Err
}

func (g *StubGenerator) Calls() int { return int(g.calls.Load()) }

// BlockingGenerator holds every call until release is closed.
type BlockingGenerator struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func NewBlockingGenerator() *BlockingGenerator {
	return &BlockingGenerator{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *BlockingGenerator) GenerateEmail(ctx context.Context, _ model.Resume, _ string) (string, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case <-g.release:
		return "Dear Hiring Manager, ...", nil
	case <-ctx.Done():
		return "", &model.TransportError{Err: ctx.Err()}
	}
}

func pdfResume() *model.Resume {
	return &model.Resume{Name: "resume.pdf", MediaType: "application/pdf", Data: []byte("%PDF-1.4")}
}

func docxResume() *model.Resume {
	return &model.Resume{
		Name:      "resume.docx",
		MediaType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:      []byte("PK"),
	}
}

// --- Tests ---

func TestController_InitialState(t *testing.T) {
	c := NewController(&StubGenerator{}, testLogger)
	s := c.State()
	if s.Status != model.StatusIdle {
		t.Errorf("Status = %v, want idle", s.Status)
	}
	if s.FileLabel != NoFileLabel {
		t.Errorf("FileLabel = %q, want %q", s.FileLabel, NoFileLabel)
	}
	if !c.CanSubmit() {
		t.Error("expected CanSubmit on a fresh form")
	}
}

func TestController_SetResumeFileUpdatesLabel(t *testing.T) {
	c := NewController(&StubGenerator{}, testLogger)
	c.SetResumeFile(docxResume())
	if got := c.FileLabel(); got != "resume.docx" {
		t.Errorf("FileLabel = %q, want resume.docx", got)
	}
	if s := c.State(); s.Status != model.StatusIdle {
		t.Errorf("selecting a file must not validate, status = %v", s.Status)
	}
	c.SetResumeFile(nil)
	if got := c.FileLabel(); got != NoFileLabel {
		t.Errorf("FileLabel after clear = %q", got)
	}
}

func TestSubmit_HappyPath(t *testing.T) {
	gen := &StubGenerator{Email: "Dear Hiring Manager, ..."}
	c := NewController(gen, testLogger)
	c.SetResumeFile(pdfResume())
	c.SetJobDescription("Senior backend engineer role at Acme")

	s, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if s.Status != model.StatusSucceeded {
		t.Errorf("Status = %v, want succeeded", s.Status)
	}
	if s.Result != "Dear Hiring Manager, ..." {
		t.Errorf("Result = %q, want returned text exactly", s.Result)
	}
	if s.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", s.ErrorMessage)
	}
	if gen.Calls() != 1 {
		t.Errorf("calls = %d, want 1", gen.Calls())
	}
	if gen.lastJobDesc != "Senior backend engineer role at Acme" || gen.lastResume.Name != "resume.pdf" {
		t.Errorf("generator got (%q, %q)", gen.lastResume.Name, gen.lastJobDesc)
	}
	if s.Loading() {
		t.Error("Loading after resolution")
	}
}

func TestSubmit_MissingInputNeverCallsNetwork(t *testing.T) {
	cases := map[string]func(c *Controller){
		"nothing":      func(c *Controller) {},
		"no file":      func(c *Controller) { c.SetJobDescription("Senior backend engineer") },
		"empty text":   func(c *Controller) { c.SetResumeFile(pdfResume()); c.SetJobDescription("") },
		"docx no text": func(c *Controller) { c.SetResumeFile(docxResume()) },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &StubGenerator{Email: "x"}
			c := NewController(gen, testLogger)
			setup(c)

			s, err := c.Submit(context.Background())
			if !errors.Is(err, model.ErrMissingInput) {
				t.Errorf("err = %v, want ErrMissingInput", err)
			}
			if s.Status != model.StatusFailed {
				t.Errorf("Status = %v, want failed", s.Status)
			}
			if !strings.Contains(s.ErrorMessage, "Please upload a resume (PDF) and paste the job description.") {
				t.Errorf("ErrorMessage = %q", s.ErrorMessage)
			}
			if gen.Calls() != 0 {
				t.Errorf("calls = %d, want 0", gen.Calls())
			}
		})
	}
}

func TestSubmit_WrongMediaType(t *testing.T) {
	gen := &StubGenerator{Email: "x"}
	c := NewController(gen, testLogger)
	c.SetResumeFile(docxResume())
	c.SetJobDescription("any text")

	s, err := c.Submit(context.Background())
	if !errors.Is(err, model.ErrNotPDF) {
		t.Errorf("err = %v, want ErrNotPDF", err)
	}
	if s.Status != model.StatusFailed {
		t.Errorf("Status = %v, want failed", s.Status)
	}
	if !strings.Contains(s.ErrorMessage, "Only PDF files are supported") {
		t.Errorf("ErrorMessage = %q", s.ErrorMessage)
	}
	if gen.Calls() != 0 {
		t.Errorf("calls = %d, want 0", gen.Calls())
	}
}

func TestSubmit_FailedValidationIsIdempotent(t *testing.T) {
	gen := &StubGenerator{Email: "x"}
	c := NewController(gen, testLogger)
	c.SetResumeFile(docxResume())
	c.SetJobDescription("text")

	first, _ := c.Submit(context.Background())
	for i := 0; i < 5; i++ {
		s, _ := c.Submit(context.Background())
		if s.Status != first.Status || s.ErrorMessage != first.ErrorMessage {
			t.Fatalf("attempt %d: got (%v, %q), want (%v, %q)", i, s.Status, s.ErrorMessage, first.Status, first.ErrorMessage)
		}
	}
	if gen.Calls() != 0 {
		t.Errorf("calls = %d, want 0", gen.Calls())
	}
}

func TestSubmit_WhitespaceJobDescriptionIsAccepted(t *testing.T) {
	gen := &StubGenerator{Email: "ok"}
	c := NewController(gen, testLogger)
	c.SetResumeFile(pdfResume())
	c.SetJobDescription(" ")

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gen.lastJobDesc != " " {
		t.Errorf("job description = %q, want untrimmed", gen.lastJobDesc)
	}
}

func TestSubmit_ServiceError(t *testing.T) {
	gen := &StubGenerator{Err: &model.ServiceError{StatusCode: 500, Detail: "Resume could not be parsed"}}
	c := NewController(gen, testLogger)
	c.SetResumeFile(pdfResume())
	c.SetJobDescription("jd")

	s, err := c.Submit(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if s.Status != model.StatusFailed {
		t.Errorf("Status = %v, want failed", s.Status)
	}
	if s.ErrorMessage != "❌ Error: Resume could not be parsed" {
		t.Errorf("ErrorMessage = %q", s.ErrorMessage)
	}
	if s.Result != "" {
		t.Errorf("Result = %q, want empty", s.Result)
	}
}

func TestSubmit_NetworkFailure(t *testing.T) {
	gen := &StubGenerator{Err: &model.TransportError{Err: errors.New("connection refused")}}
	c := NewController(gen, testLogger)
	c.SetResumeFile(pdfResume())
	c.SetJobDescription("jd")

	s, _ := c.Submit(context.Background())
	if s.ErrorMessage != model.FallbackMessage {
		t.Errorf("ErrorMessage = %q, want %q", s.ErrorMessage, model.FallbackMessage)
	}
	var te *model.TransportError
	if !errors.As(s.Err, &te) {
		t.Errorf("Err = %v, want wrapped TransportError", s.Err)
	}
}

func TestSubmit_ClearsStaleResult(t *testing.T) {
	gen := &StubGenerator{Email: "first email"}
	c := NewController(gen, testLogger)
	c.SetResumeFile(pdfResume())
	c.SetJobDescription("jd")
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	c.SetJobDescription("")
	s, _ := c.Submit(context.Background())
	if s.Result != "" {
		t.Errorf("Result = %q, want cleared", s.Result)
	}
	if s.ErrorMessage == "" {
		t.Error("expected validation message")
	}

	c.SetJobDescription("jd again")
	gen.Email = "second email"
	s, _ = c.Submit(context.Background())
	if s.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want cleared", s.ErrorMessage)
	}
	if s.Result != "second email" {
		t.Errorf("Result = %q", s.Result)
	}
}

func TestSubmit_NoDoubleSubmission(t *testing.T) {
	gen := NewBlockingGenerator()
	c := NewController(gen, testLogger)
	c.SetResumeFile(pdfResume())
	c.SetJobDescription("jd")

	done := make(chan State, 1)
	go func() {
		s, _ := c.Submit(context.Background())
		done <- s
	}()

	select {
	case <-gen.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never started")
	}

	if c.CanSubmit() {
		t.Error("CanSubmit while in flight")
	}
	if s := c.State(); !s.Loading() {
		t.Errorf("Status = %v, want in_flight", s.Status)
	}

	s, err := c.Submit(context.Background())
	if !errors.Is(err, ErrInFlight) {
		t.Errorf("second Submit err = %v, want ErrInFlight", err)
	}
	if s.Status != model.StatusInFlight {
		t.Errorf("second Submit status = %v, want in_flight", s.Status)
	}

	close(gen.release)
	final := <-done
	if final.Status != model.StatusSucceeded {
		t.Errorf("final status = %v, want succeeded", final.Status)
	}
	if n := gen.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestSubmit_ConcurrentCallsIssueOneRequest(t *testing.T) {
	gen := NewBlockingGenerator()
	c := NewController(gen, testLogger)
	c.SetResumeFile(pdfResume())
	c.SetJobDescription("jd")

	var wg sync.WaitGroup
	var ignored atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Submit(context.Background()); errors.Is(err, ErrInFlight) {
				ignored.Add(1)
			}
		}()
	}

	<-gen.started
	// Let the other goroutines hit the in-flight guard before releasing.
	time.Sleep(50 * time.Millisecond)
	close(gen.release)
	wg.Wait()

	calls := gen.calls.Load()
	if calls+ignored.Load() != 8 {
		t.Errorf("calls %d + ignored %d != 8", calls, ignored.Load())
	}
	if calls < 1 {
		t.Error("expected at least one request")
	}
}

func TestSubmit_ObserverSeesTransitions(t *testing.T) {
	gen := &StubGenerator{Email: "ok"}
	c := NewController(gen, testLogger)
	var seen []model.Status
	c.OnChange(func(s State) { seen = append(seen, s.Status) })
	c.SetResumeFile(pdfResume())
	c.SetJobDescription("jd")

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := []model.Status{model.StatusInFlight, model.StatusSucceeded}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, seen[i], want[i])
		}
	}
}
