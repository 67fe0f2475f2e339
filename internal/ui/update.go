package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/navvylabs/navvy/internal/task"
	"github.com/navvylabs/navvy/internal/ui/services"
	"github.com/navvylabs/navvy/internal/ui/views"
)

const helpText = `Available commands:
- /procs - List workspace processes
- /input <id> <text> - Send a line to a process's stdin
- /kill <id> - Kill a process
- /pause - Hold the task at the next step boundary
- /resume - Wake a paused task
- /cancel - Abort the current task (Esc also works)
- /quit - Exit (Ctrl+C also works)
- /help - Show this help`

// Model implements tea.Model over the engine's event stream.
type Model struct {
	agent  Agent
	procs  ProcessManager
	render services.MarkdownRenderer

	state views.State
}

// newModel creates the initial model.
func newModel(agent Agent, procs ProcessManager, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Describe a task..."
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		agent:  agent,
		procs:  procs,
		render: opts.Renderer,
		state: views.State{
			Input:     ti,
			Viewport:  vp,
			Spinner:   sp,
			TaskState: string(agent.State()),
			ModelName: opts.ModelName,
			Mode:      opts.Mode,
		},
	}
}

// Internal messages
type tickMsg time.Time
type engineEventMsg struct {
	ev task.Event
}

// Init starts the listeners and animations.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.state.Spinner.Tick,
		tick(),
		listenForEvents(m.agent.Events()),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = msg.Width
		m.state.Viewport.Height = msg.Height - 6 // Reserve space for input and status
		m.updateViewport()
		return m, nil

	case tickMsg:
		// Advance the dot animation
		m.state.DotCount = (m.state.DotCount + 1) % 4
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case engineEventMsg:
		m.handleEngineEvent(msg.ev)
		return m, listenForEvents(m.agent.Events())
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

// View renders the UI.
func (m Model) View() string {
	return views.RenderRoot(m.state, m.render)
}

// handleEngineEvent folds one engine event into the view state.
func (m *Model) handleEngineEvent(ev task.Event) {
	switch ev := ev.(type) {
	case task.StateEvent:
		m.state.TaskState = string(ev.State)
		switch ev.State {
		case task.StateIdle, task.StateCompleted, task.StateFailed, task.StateCancelled:
			m.flushStreaming()
			m.state.Thinking = false
			m.state.StatusMessage = ""
		case task.StatePaused:
			m.state.Thinking = false
		}

	case task.ThinkingEvent:
		m.state.Thinking = true

	case task.TextEvent:
		m.state.Streaming += ev.Text
		m.updateViewport()

	case task.ToolStartEvent:
		m.flushStreaming()
		m.state.Thinking = false
		action := services.FormatToolAction(ev.Name, ev.Args)
		m.state.StatusMessage = action
		m.appendMessage("tool", "→ "+action)

	case task.ToolProgressEvent:
		m.state.StatusMessage = fmt.Sprintf("%s: %s", ev.Name, lastLine(ev.Chunk))

	case task.ToolEndEvent:
		m.state.StatusMessage = ""
		line := firstLine(ev.Result.Text())
		if ev.Result.IsError {
			m.appendMessage("error", fmt.Sprintf("✘ %s: %s", ev.Name, line))
		} else if line != "" {
			m.appendMessage("tool", "✓ "+line)
		}

	case task.ApprovalRequestEvent:
		m.flushStreaming()
		m.state.PendingApproval = &views.Approval{
			CallID: ev.CallID,
			Tool:   ev.Name,
			Risk:   string(ev.Risk),
			Detail: services.FormatApprovalDetail(ev.Name, ev.Args),
		}

	case task.QuestionEvent:
		m.flushStreaming()
		m.state.Thinking = false
		q := views.Question{CallID: ev.CallID, Question: ev.Question, Options: ev.Options}
		m.state.PendingQuestion = &q
		m.appendMessage("assistant", views.FormatQuestion(q))

	case task.CompletionEvent:
		m.flushStreaming()
		m.state.Thinking = false
		if ev.Result != "" {
			m.appendMessage("assistant", ev.Result)
		}
		if ev.Command != "" {
			m.appendMessage("system", "Try it: "+ev.Command)
		}

	case task.UsageEvent:
		m.state.Usage.Prompt += ev.Usage.PromptTokens
		m.state.Usage.Completion += ev.Usage.CompletionTokens
		m.state.Usage.Total += ev.Usage.TotalTokens

	case task.ErrorEvent:
		m.flushStreaming()
		m.state.Thinking = false
		m.appendMessage("error", "Error: "+ev.Err.Error())
	}
}

// handleKeyPress handles keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The approval popup captures the keyboard until answered.
	if req := m.state.PendingApproval; req != nil {
		switch msg.String() {
		case "y":
			m.state.PendingApproval = nil
			if err := m.agent.Approve(req.CallID); err != nil {
				m.appendMessage("error", err.Error())
			}
		case "n", "esc":
			m.state.PendingApproval = nil
			if err := m.agent.Reject(req.CallID, "Rejected by operator"); err != nil {
				m.appendMessage("error", err.Error())
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if err := m.agent.Cancel(); err == nil {
			m.appendMessage("system", "Cancelling...")
		}
		return m, nil

	case "enter":
		return m.handleSubmit()
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

// handleSubmit sends the input line to the engine or the command handler.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.state.Input.Value())
	if input == "" {
		return m, nil
	}
	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	// A numeric reply to a pending question picks that option.
	if q := m.state.PendingQuestion; q != nil {
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(q.Options) {
			input = q.Options[n-1]
		}
	}

	if err := m.agent.Submit(input); err != nil {
		m.appendMessage("error", err.Error())
		return m, nil
	}

	m.state.PendingQuestion = nil
	m.appendMessage("user", input)
	m.state.Input.SetValue("")
	return m, nil
}

// handleCommand handles slash commands.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	m.state.Input.SetValue("")

	switch parts[0] {
	case "/help":
		m.appendMessage("system", helpText)

	case "/procs":
		m.appendMessage("system", m.formatProcs())

	case "/input":
		if len(parts) < 3 {
			m.appendMessage("system", "Usage: /input <id> <text>")
			break
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			m.appendMessage("system", "Usage: /input <id> <text>")
			break
		}
		if err := m.procs.SendInput(id, strings.Join(parts[2:], " ")); err != nil {
			m.appendMessage("error", err.Error())
		} else {
			m.appendMessage("system", fmt.Sprintf("Sent to process %d", id))
		}

	case "/kill":
		if len(parts) != 2 {
			m.appendMessage("system", "Usage: /kill <id>")
			break
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			m.appendMessage("system", "Usage: /kill <id>")
			break
		}
		if err := m.procs.Kill(id); err != nil {
			m.appendMessage("error", err.Error())
		} else {
			m.appendMessage("system", fmt.Sprintf("Killed process %d", id))
		}

	case "/pause":
		if err := m.agent.Pause(); err != nil {
			m.appendMessage("error", err.Error())
		} else {
			m.appendMessage("system", "Pausing at the next step boundary...")
		}

	case "/resume":
		if err := m.agent.Resume(); err != nil {
			m.appendMessage("error", err.Error())
		}

	case "/cancel":
		if err := m.agent.Cancel(); err != nil {
			m.appendMessage("error", err.Error())
		} else {
			m.appendMessage("system", "Cancelling...")
		}

	case "/quit":
		return m, tea.Quit

	default:
		m.appendMessage("system", fmt.Sprintf("Unknown command %s - /help lists commands", parts[0]))
	}

	return m, nil
}

// formatProcs renders the live process table.
func (m *Model) formatProcs() string {
	procs := m.procs.Live()
	if len(procs) == 0 {
		return "No workspace processes."
	}

	var lines []string
	for _, p := range procs {
		lines = append(lines, fmt.Sprintf("#%d [%s] %s", p.ID, p.State, p.Command))
	}
	return strings.Join(lines, "\n")
}

// appendMessage adds a transcript entry and scrolls to it.
func (m *Model) appendMessage(role, content string) {
	m.state.Messages = append(m.state.Messages, views.Message{Role: role, Content: content})
	m.updateViewport()
}

// flushStreaming moves accumulated assistant prose into the transcript.
func (m *Model) flushStreaming() {
	if m.state.Streaming == "" {
		return
	}
	m.state.Messages = append(m.state.Messages, views.Message{Role: "assistant", Content: m.state.Streaming})
	m.state.Streaming = ""
	m.updateViewport()
}

// updateViewport rebuilds the viewport content.
func (m *Model) updateViewport() {
	content := views.FormatChatContent(m.state.Messages, m.state.Streaming, m.state.Width-4, m.render)
	m.state.Viewport.SetContent(content)
	m.state.Viewport.GotoBottom()
}

// listenForEvents relays one engine event into the update loop. It
// re-arms itself from the engineEventMsg handler, one receive per
// delivery, so events stay ordered.
func listenForEvents(ch <-chan task.Event) tea.Cmd {
	return func() tea.Msg {
		return engineEventMsg{ev: <-ch}
	}
}

func tick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "…"
	}
	return s
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > 80 {
		s = s[:80] + "…"
	}
	return s
}
