package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/coldmail/internal/form"
	"github.com/amishk599/coldmail/internal/model"
)

const (
	chooseLabel     = "⬆️ Choose Resume File"
	submitLabel     = "✉️ Generate Cold Email"
	submittingLabel = "Processing and Generating..."
	loadingMessage  = "Connecting your resume to the job description..."
	jobDescRows     = 12
)

type focusTarget int

const (
	focusChoose focusTarget = iota
	focusJobDesc
	focusSubmit
	focusCount
)

type viewState int

const (
	viewForm viewState = iota
	viewPicker
)

// stateChangedMsg carries a controller transition pushed from the observer.
type stateChangedMsg struct {
	state form.State
}

// submitDoneMsg is sent when Submit returns.
type submitDoneMsg struct {
	state form.State
	err   error
}

// ResumeLoader turns a picked path into a résumé.
type ResumeLoader func(path string) (*model.Resume, error)

type formModel struct {
	ctx        context.Context
	ctrl       *form.Controller
	loadResume ResumeLoader

	picker  filepicker.Model
	jobDesc textarea.Model
	spinner spinner.Model
	output  viewport.Model

	view    viewState
	focus   focusTarget
	pending bool // submit issued, Submit has not returned yet
	state   form.State
	pickErr string
	width   int
	height  int
}

func newFormModel(ctx context.Context, ctrl *form.Controller, startDir string, loadResume ResumeLoader) formModel {
	fp := filepicker.New()
	fp.CurrentDirectory = startDir
	// Hint only, like accept=".pdf": the media type is still checked on submit.
	fp.AllowedTypes = []string{".pdf"}

	ta := textarea.New()
	ta.Placeholder = "E.g., Senior Python Developer role requiring experience with AWS, Pandas, and machine learning..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(jobDescRows)
	ta.SetValue(ctrl.State().JobDescription)
	ta.Blur()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	return formModel{
		ctx:        ctx,
		ctrl:       ctrl,
		loadResume: loadResume,
		picker:     fp,
		jobDesc:    ta,
		spinner:    sp,
		output:     viewport.New(80, 10),
		state:      ctrl.State(),
	}
}

func (m formModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case stateChangedMsg:
		m.applyState(msg.state)
		return m, nil

	case submitDoneMsg:
		m.pending = false
		m.applyState(msg.state)
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.view == viewPicker {
			return m.updatePicker(msg)
		}
		return m.updateForm(msg)
	}

	// Directory reads and other picker-internal messages.
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m formModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return m.setFocus((m.focus + 1) % focusCount)
	case "shift+tab":
		return m.setFocus((m.focus + focusCount - 1) % focusCount)
	case "ctrl+s":
		return m.submit()
	case "esc":
		if m.focus == focusJobDesc {
			return m.setFocus(focusSubmit)
		}
		return m, tea.Quit
	}

	switch m.focus {
	case focusChoose:
		if msg.String() == "enter" {
			m.view = viewPicker
			m.pickErr = ""
			return m, nil
		}
	case focusSubmit:
		if msg.String() == "enter" {
			return m.submit()
		}
	case focusJobDesc:
		var cmd tea.Cmd
		m.jobDesc, cmd = m.jobDesc.Update(msg)
		m.ctrl.SetJobDescription(m.jobDesc.Value())
		m.state.JobDescription = m.jobDesc.Value()
		return m, cmd
	}

	// Scroll the generated email.
	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return m, cmd
}

func (m formModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.view = viewForm
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		r, err := m.loadResume(path)
		if err != nil {
			m.pickErr = err.Error()
			return m, cmd
		}
		m.ctrl.SetResumeFile(r)
		m.state = m.ctrl.State()
		m.view = viewForm
		return m, cmd
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.pickErr = fmt.Sprintf("%s is not a .pdf file", path)
	}
	return m, cmd
}

func (m formModel) setFocus(f focusTarget) (tea.Model, tea.Cmd) {
	m.focus = f
	if f == focusJobDesc {
		cmd := m.jobDesc.Focus()
		return m, cmd
	}
	m.jobDesc.Blur()
	return m, nil
}

// submit is a no-op while a request is outstanding; the button is disabled.
func (m formModel) submit() (tea.Model, tea.Cmd) {
	if m.loading() || !m.ctrl.CanSubmit() {
		return m, nil
	}
	m.pending = true
	m.state.ErrorMessage = ""
	m.state.Result = ""
	ctx, ctrl := m.ctx, m.ctrl
	submitCmd := func() tea.Msg {
		s, err := ctrl.Submit(ctx)
		return submitDoneMsg{state: s, err: err}
	}
	return m, tea.Batch(submitCmd, m.spinner.Tick)
}

func (m *formModel) applyState(s form.State) {
	m.state = s
	m.output.SetContent(renderEmail(s.Result, m.output.Width))
	m.output.GotoTop()
}

func (m formModel) loading() bool {
	return m.pending || m.state.Loading()
}

func (m *formModel) recalcLayout() {
	width := max(m.width-4, 20)
	m.jobDesc.SetWidth(width)
	m.output.Width = width
	// Title, labels, buttons, messages and hints take roughly 14 lines.
	m.output.Height = max(m.height-jobDescRows-16, 5)
	m.output.SetContent(renderEmail(m.state.Result, m.output.Width))
}

func (m formModel) View() string {
	if m.view == viewPicker {
		return m.viewPicker()
	}
	return m.viewForm()
}

func (m formModel) viewForm() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📧 Cold Email Synthesizer"))
	b.WriteByte('\n')

	b.WriteString(labelStyle.Render("📄 Resume Upload (PDF only)"))
	b.WriteByte('\n')
	b.WriteString(m.renderButton(chooseLabel, m.focus == focusChoose, false))
	b.WriteString(fileNameStyle.Render(m.state.FileLabel))
	b.WriteByte('\n')

	b.WriteString(labelStyle.Render("💼 Paste the job description or company information here"))
	b.WriteByte('\n')
	b.WriteString(m.jobDesc.View())
	b.WriteString("\n\n")

	label := submitLabel
	if m.loading() {
		label = submittingLabel
	}
	b.WriteString(m.renderButton(label, m.focus == focusSubmit, m.loading()))
	b.WriteByte('\n')

	if m.state.ErrorMessage != "" {
		b.WriteString(errorStyle.Render(m.state.ErrorMessage))
		b.WriteByte('\n')
	}
	if m.loading() {
		b.WriteString(loadingStyle.Render(m.spinner.View() + " " + loadingMessage))
		b.WriteByte('\n')
	}
	if m.state.Result != "" {
		b.WriteString(outputTitleStyle.Render("✅ Generated Cold Email"))
		b.WriteByte('\n')
		b.WriteString(outputBorderStyle.Render(m.output.View()))
		b.WriteByte('\n')
	}

	b.WriteString(hintStyle.Render("tab/shift+tab move  enter activate  ctrl+s generate  pgup/pgdn scroll  esc quit"))
	return b.String()
}

func (m formModel) viewPicker() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(chooseLabel))
	b.WriteByte('\n')
	b.WriteString(fileNameStyle.Render(m.picker.CurrentDirectory))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	b.WriteByte('\n')
	if m.pickErr != "" {
		b.WriteString(errorStyle.Render("⚠ " + m.pickErr))
		b.WriteByte('\n')
	}
	b.WriteString(hintStyle.Render("↑/↓ navigate  → open dir  ← back  enter select  esc cancel"))
	return b.String()
}

func (m formModel) renderButton(label string, focused, disabled bool) string {
	switch {
	case disabled:
		return disabledButtonStyle.Render(label)
	case focused:
		return focusedButtonStyle.Render("> " + label)
	default:
		return buttonStyle.Render(label)
	}
}

// renderEmail soft-wraps only the lines wider than width. Lines that fit,
// including their indentation and inner spacing, pass through as returned.
func renderEmail(email string, width int) string {
	if email == "" || width <= 0 {
		return email
	}
	return lipgloss.NewStyle().Width(width).Render(email)
}

// RunForm launches the interactive form. Quitting while a request is in
// flight cancels it and discards the result.
func RunForm(ctrl *form.Controller, startDir string, loadResume ResumeLoader) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := newFormModel(ctx, ctrl, startDir, loadResume)
	p := tea.NewProgram(m, tea.WithAltScreen())
	ctrl.OnChange(func(s form.State) {
		p.Send(stateChangedMsg{state: s})
	})
	defer ctrl.OnChange(nil)

	_, err := p.Run()
	return err
}
