// Package tui provides a Bubble Tea terminal user interface for batch
// loudness normalization.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/audio-normalizer/internal/batch"
	"github.com/handiism/audio-normalizer/internal/config"
	"github.com/handiism/audio-normalizer/internal/model"
	"github.com/handiism/audio-normalizer/internal/normalize"
	"go.uber.org/zap"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	confirmStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFE66D")).
			Padding(1, 2)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

const stopPrompt = "Are you sure you want to stop the volume normalization?"

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateRunning
	StateConfirmStop
	StateCancelling
	StateDone
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   batch.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	engine    *normalize.Engine
	log       *zap.Logger
	logs      []LogEntry

	// Run state; replaced on every start.
	ctx     context.Context
	cancel  context.CancelFunc
	token   *batch.CancelToken
	tracker *batch.Tracker
	dir     string

	done    int
	total   int
	current string

	outcome *model.BatchOutcome
	err     error

	// Quit once the running batch returns.
	quitting bool

	// Options
	playlist        bool
	continueOnError bool
	verbose         bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings, engine *normalize.Engine, log *zap.Logger) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if log == nil {
		log = zap.NewNop()
	}

	ti := textinput.New()
	if wd, err := os.Getwd(); err == nil {
		ti.Placeholder = wd
	}
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	return Model{
		state:           StateInput,
		textInput:       ti,
		spinner:         sp,
		progress:        prog,
		settings:        settings,
		engine:          engine,
		log:             log,
		playlist:        settings.Batch.Playlist != "",
		continueOnError: settings.Batch.ContinueOnError,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// BatchDoneMsg is sent when the batch worker returns.
	BatchDoneMsg struct {
		Outcome *model.BatchOutcome
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

func (m Model) active() bool {
	return m.state == StateRunning || m.state == StateConfirmStop || m.state == StateCancelling
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if !m.active() {
				return m, tea.Quit
			}
			if m.quitting {
				// Second interrupt: abort the file in progress too.
				m.cancel()
				return m, nil
			}
			m.token.Cancel()
			m.quitting = true
			m.state = StateCancelling
			return m, nil

		case "esc":
			switch m.state {
			case StateInput:
				return m, tea.Quit
			case StateRunning:
				m.state = StateConfirmStop
				return m, nil
			case StateConfirmStop:
				m.state = StateRunning
				return m, nil
			}

		case "s":
			if m.state == StateRunning {
				m.state = StateConfirmStop
				return m, nil
			}

		case "y", "Y":
			if m.state == StateConfirmStop {
				m.token.Cancel()
				m.state = StateCancelling
				return m, nil
			}

		case "n", "N":
			if m.state == StateConfirmStop {
				m.state = StateRunning
				return m, nil
			}

		case "enter":
			if m.state == StateInput {
				dir := strings.TrimSpace(m.textInput.Value())
				if dir == "" {
					dir = m.textInput.Placeholder
				}
				return m.start(dir)
			}

		case "ctrl+p":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}

		case "ctrl+e":
			if m.state == StateInput {
				m.continueOnError = !m.continueOnError
			}

		case "ctrl+l":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateDone {
				return m, tea.Quit
			}
			if m.active() {
				m.token.Cancel()
				m.quitting = true
				m.state = StateCancelling
				return m, nil
			}

		case "r":
			if m.state == StateDone {
				return m.reset(), textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case BatchDoneMsg:
		m.syncProgress()
		m.state = StateDone
		m.outcome = msg.Outcome
		m.err = msg.Err
		if m.cancel != nil {
			m.cancel()
		}
		if m.quitting {
			return m, tea.Quit
		}

	case TickMsg:
		if m.active() {
			m.syncProgress()
			var percent float64
			if m.total > 0 {
				percent = float64(m.done) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// start launches a batch over dir on a background goroutine.
func (m Model) start(dir string) (tea.Model, tea.Cmd) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	m.dir = abs
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.token = batch.NewCancelToken()
	m.tracker = batch.NewTracker()
	m.state = StateRunning
	m.logs = nil
	m.done, m.total, m.current = 0, 0, ""
	m.textInput.Blur()

	return m, tea.Batch(m.runBatch(), m.tickProgress(), m.spinner.Tick)
}

func (m Model) reset() Model {
	m.state = StateInput
	m.logs = nil
	m.outcome = nil
	m.err = nil
	m.done, m.total, m.current = 0, 0, ""
	m.token = nil
	m.tracker = nil
	m.quitting = false
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m
}

// syncProgress copies the tracker's snapshot into the model.
func (m *Model) syncProgress() {
	if m.tracker == nil {
		return
	}
	snap := m.tracker.Snapshot()
	m.done = snap.Done
	m.total = snap.Total
	m.current = snap.File

	m.logs = nil
	for _, e := range snap.Recent {
		if e.Level == batch.LevelVerbose && !m.verbose {
			continue
		}
		if e.Message == "" {
			continue
		}
		m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	}
}

// runBatch returns the command that performs the run. It captures the run
// state by value so the worker never touches the model.
func (m Model) runBatch() tea.Cmd {
	ctx, dir, token, tracker := m.ctx, m.dir, m.token, m.tracker
	opts := batch.OptionsFromSettings(m.settings)
	opts.ContinueOnError = m.continueOnError
	if !m.playlist {
		opts.Playlist = ""
	} else if opts.Playlist == "" {
		opts.Playlist = "m3u"
	}
	orch := batch.NewOrchestrator(m.engine, opts, m.log)
	spec := m.settings.Spec()
	reporter := batch.MultiReporter{tracker, batch.LogReporter(m.log)}

	return func() tea.Msg {
		outcome, err := orch.Run(ctx, dir, spec, token, reporter)
		return BatchDoneMsg{Outcome: outcome, Err: err}
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎚 Audio Normalizer"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Normalize a folder of MP3s to %.1f dBFS", m.settings.Normalization.TargetDBFS)))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateRunning:
		b.WriteString(m.viewRunning())
	case StateConfirmStop:
		b.WriteString(m.viewRunning())
		b.WriteString("\n")
		b.WriteString(confirmStyle.Render(warningStyle.Render(stopPrompt) + "\n\n" + dimStyle.Render("y: stop • n: keep going")))
		b.WriteString("\n")
	case StateCancelling:
		b.WriteString(m.viewCancelling())
	case StateDone:
		b.WriteString(m.viewDone())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Directory to normalize:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	check := func(on bool) string {
		if on {
			return "[×]"
		}
		return "[ ]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Create playlist (ctrl+p)\n", check(m.playlist)))
	b.WriteString(fmt.Sprintf("  %s Continue past failed files (ctrl+e)\n", check(m.continueOnError)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+l)\n", check(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output: <directory>/%s at %d kbps", m.settings.Batch.OutputSubdir, m.settings.Normalization.BitrateKbps)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewRunning() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.total == 0 {
		b.WriteString(subtitleStyle.Render("Scanning " + m.dir))
	} else {
		position := min(m.done+1, m.total)
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Normalizing %d/%d", position, m.total)))
		if m.current != "" {
			b.WriteString(" ")
			b.WriteString(fileStyle.Render(m.current))
		}
	}
	b.WriteString("\n\n")

	var percent float64
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewCancelling() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(warningStyle.Render("Cancelling..."))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("The current file will finish first."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDone() string {
	if m.outcome == nil {
		var b strings.Builder
		b.WriteString(errorStyle.Render("❌ Error occurred:"))
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		}
		return b.String()
	}

	o := m.outcome
	switch o.Status {
	case model.BatchCompleted:
		body := fmt.Sprintf("✨ %s\n\nFiles: %d/%d\nOutput: %s", o.Message(), o.Succeeded(), o.Total, o.OutputDir)
		if len(o.Failures) > 0 {
			body += fmt.Sprintf("\nFailed: %d", len(o.Failures))
		}
		return boxStyle.Render(body)
	case model.BatchCancelled:
		return warningStyle.Render(o.Message()) + "\n\n" +
			infoStyle.Render(fmt.Sprintf("Kept %d of %d file(s) in %s", o.Succeeded(), o.Total, o.OutputDir))
	case model.BatchEmpty:
		return warningStyle.Render(o.Message())
	default:
		return errorStyle.Render("❌ "+o.Message()) + "\n\n" + m.renderLogs()
	}
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case batch.LevelError:
			style = errorStyle
			prefix = "✗"
		case batch.LevelWarning:
			style = warningStyle
			prefix = "!"
		case batch.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case batch.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • ctrl+p: playlist • ctrl+e: continue on error • ctrl+l: verbose • esc: quit"
	case StateRunning:
		return "s/esc: stop • q: stop and quit"
	case StateConfirmStop:
		return "y: stop • n/esc: keep going"
	case StateCancelling:
		return "ctrl+c: abort current file"
	case StateDone:
		return "r: new folder • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings, engine *normalize.Engine, log *zap.Logger) error {
	p := tea.NewProgram(NewModel(settings, engine, log), tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(Model); ok && m.cancel != nil {
		m.cancel()
	}
	return err
}
