package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"edurag/internal/answer"
	"edurag/internal/domain"
)

// AskPort is the TUI-facing subset of the answer orchestrator.
type AskPort interface {
	Answer(ctx context.Context, question string, opts answer.Options) (domain.Answer, error)
	CompareAll(ctx context.Context, question string, opts answer.Options, backendIDs []string) (domain.Comparison, error)
	Summarize(ctx context.Context, maxChunks int) (domain.Answer, error)
	GenerateQuiz(ctx context.Context, opts answer.QuizOptions) (domain.Quiz, error)
}

// Model is the Bubble Tea model for the question-answering TUI.
type Model struct {
	service  AskPort
	input    textinput.Model
	viewport viewport.Model
	header   string
	status   string
	compare  bool
	ready    bool
}

// New creates a new TUI model. header describes the loaded knowledge
// base and backend availability.
func New(service AskPort, header string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter (ctrl+o compare, ctrl+s summary, ctrl+g quiz)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, header: header, status: "Ready."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "ctrl+o":
			m.compare = !m.compare
			if m.compare {
				m.status = "Compare mode: answers from all backends."
			} else {
				m.status = "Single mode: answer from the default backend."
			}
			return m, nil
		case "ctrl+s":
			ans, err := m.service.Summarize(context.Background(), 0)
			if err != nil {
				m.setError("summary", err)
				return m, nil
			}
			m.status = fmt.Sprintf("Summary from %s (%dms)", ans.BackendID, ans.Latency.Milliseconds())
			m.viewport.SetContent(renderAnswer(ans))
			return m, nil
		case "ctrl+g":
			// The input box, if filled, scopes the quiz to a topic.
			topic := strings.TrimSpace(m.input.Value())
			quiz, err := m.service.GenerateQuiz(context.Background(), answer.QuizOptions{Topic: topic})
			if err != nil {
				m.setError(topic, err)
				return m, nil
			}
			m.status = fmt.Sprintf("%d questions on %s from %s (%dms)",
				len(quiz.Questions), quiz.Topic, quiz.BackendID, quiz.Latency.Milliseconds())
			m.viewport.SetContent(renderQuiz(quiz))
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.runQuestion(q)
				return m, nil
			}
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runQuestion(q string) {
	ctx := context.Background()
	if m.compare {
		cmp, err := m.service.CompareAll(ctx, q, answer.Options{}, nil)
		if err != nil {
			m.setError(q, err)
			return
		}
		m.status = fmt.Sprintf("Compared %d backends (%d ok, %d failed)",
			len(cmp.PerBackend), cmp.Aggregate.Succeeded, cmp.Aggregate.Failed)
		m.viewport.SetContent(renderComparison(cmp))
		return
	}
	ans, err := m.service.Answer(ctx, q, answer.Options{})
	if err != nil {
		m.setError(q, err)
		return
	}
	m.status = fmt.Sprintf("%s answered in %dms (~%d tokens)",
		ans.BackendID, ans.Latency.Milliseconds(), ans.TokenEstimate)
	m.viewport.SetContent(renderAnswer(ans))
}

func (m *Model) setError(q string, err error) {
	if errors.Is(err, domain.ErrNoContext) {
		m.status = fmt.Sprintf("Nothing indexed matches %q. Ingest documents first.", q)
		m.viewport.SetContent("No context found for this question.")
		return
	}
	m.status = "Error: " + err.Error()
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("edurag") + " " + dimStyle.Render(m.header)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + results + "\n" + input + "\n" + status
}

func renderAnswer(ans domain.Answer) string {
	var b strings.Builder
	b.WriteString(ans.Text)
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Sources:"))
	for i, ch := range ans.UsedChunks {
		fmt.Fprintf(&b, "\n%s", dimStyle.Render(fmt.Sprintf("[%d] (%.3f) %s", i+1, ch.Score, snippet(ch.Text))))
	}
	return b.String()
}

func renderComparison(cmp domain.Comparison) string {
	ids := make([]string, 0, len(cmp.PerBackend))
	for id := range cmp.PerBackend {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteString("\n\n")
		}
		r := cmp.PerBackend[id]
		if r.OK() {
			b.WriteString(backendStyle.Render(fmt.Sprintf("%s (%dms, ~%d tokens)", id, r.Latency.Milliseconds(), r.TokenEstimate)))
			b.WriteString("\n")
			b.WriteString(r.Text)
		} else {
			b.WriteString(failedStyle.Render(fmt.Sprintf("%s failed (%dms)", id, r.Latency.Milliseconds())))
			b.WriteString("\n")
			b.WriteString(r.Err.Error())
		}
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Shared context: %d chunks", len(cmp.UsedChunks))))
	return b.String()
}

func renderQuiz(quiz domain.Quiz) string {
	var b strings.Builder
	b.WriteString(backendStyle.Render(fmt.Sprintf("Quiz: %s", quiz.Topic)))
	for i, q := range quiz.Questions {
		fmt.Fprintf(&b, "\n\n%d. %s", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Fprintf(&b, "\n   %c) %s", 'a'+j, opt)
		}
		fmt.Fprintf(&b, "\n%s", dimStyle.Render(fmt.Sprintf("answer: %s (%s)", q.Answer, q.Explanation)))
	}
	return b.String()
}

func snippet(text string) string {
	const maxLen = 120
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxLen {
		return text[:maxLen] + "..."
	}
	return text
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	backendStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)
