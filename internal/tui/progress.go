package tui

import (
	"bytes"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ProgressMsg updates the number of records written so far.
type ProgressMsg struct {
	Written int
	Total   int
}

// LogLineMsg prints a line above the spinner.
type LogLineMsg struct {
	Line string
}

// DoneMsg ends the progress display.
type DoneMsg struct {
	Result string
	Err    error
}

// ProgressModel renders a spinner with a written/total counter.
type ProgressModel struct {
	spinner spinner.Model
	message string
	written int
	total   int
	done    bool
	result  string
	err     error
}

// NewProgressModel creates a progress model for total records.
func NewProgressModel(message string, total int) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return ProgressModel{
		spinner: s,
		message: message,
		total:   total,
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.written = msg.Written
		m.total = msg.Total
		return m, nil
	case LogLineMsg:
		return m, tea.Println(msg.Line)
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.done {
		if m.err != nil {
			return ErrorStyle.Render(SymbolCross+" "+m.err.Error()) + "\n"
		}
		return SuccessStyle.Render(SymbolCheck+" "+m.result) + "\n"
	}
	counter := MutedStyle.Render(fmt.Sprintf("%d/%d", m.written, m.total))
	return m.spinner.View() + " " + MessageStyle.Render(m.message) + " " + counter
}

// Written returns the last reported number of written records.
func (m ProgressModel) Written() int {
	return m.written
}

// IsDone returns true once a DoneMsg has been received.
func (m ProgressModel) IsDone() bool {
	return m.done
}

// ProgressDisplay runs a ProgressModel in the background and implements
// ingestor.ProgressReporter.
type ProgressDisplay struct {
	program *tea.Program
	out     io.Writer
	exited  chan struct{}
}

// StartProgress starts rendering progress to out. Keyboard input and signal
// handling are left to the caller so Ctrl+C keeps cancelling the run context.
func StartProgress(out io.Writer, message string, total int) *ProgressDisplay {
	p := &ProgressDisplay{
		program: tea.NewProgram(
			NewProgressModel(message, total),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		out:    out,
		exited: make(chan struct{}),
	}

	go func() {
		defer close(p.exited)
		_, _ = p.program.Run()
	}()

	return p
}

// Progress forwards a progress update to the display.
func (p *ProgressDisplay) Progress(written, total int) {
	p.program.Send(ProgressMsg{Written: written, Total: total})
}

// Write prints each line of b above the spinner while the display runs.
// Once the display has stopped, b goes straight to the underlying writer.
func (p *ProgressDisplay) Write(b []byte) (int, error) {
	select {
	case <-p.exited:
		return p.out.Write(b)
	default:
	}
	for _, line := range bytes.Split(bytes.TrimSuffix(b, []byte("\n")), []byte("\n")) {
		p.program.Send(LogLineMsg{Line: string(line)})
	}
	return len(b), nil
}

// Finish renders the final line and waits for the display to stop.
func (p *ProgressDisplay) Finish(result string, err error) {
	p.program.Send(DoneMsg{Result: result, Err: err})
	<-p.exited
}
