package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KathiravanBCS/nexa-ai/pkg/client"
	"github.com/KathiravanBCS/nexa-ai/pkg/conversation"
	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

const inputHeight = 3

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	attachStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "chat service base URL")
	userID := flag.String("user", "", "caller identity forwarded as x-user-id")
	threadID := flag.String("thread", "", "resume an existing thread")
	apiKey := flag.String("api-key", os.Getenv("GEMINI_API_KEY"), "local key override (development servers only)")
	flag.Parse()

	apiClient := client.New(*serverURL, *userID)
	controller := conversation.NewController(apiClient, apiClient, *userID)

	if *apiKey != "" && serverAllowsOverride(*serverURL) {
		controller.SetKeyOverride(*apiKey)
	}

	if *threadID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := controller.OpenThread(ctx, *threadID)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening thread %s: %v\n", *threadID, err)
			os.Exit(1)
		}
	}

	p := tea.NewProgram(newModel(controller, apiClient), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "running TUI: %v\n", err)
		os.Exit(1)
	}
}

// serverAllowsOverride checks whether the server exposes its diagnostics
// surface. Production servers hide it, which also disables the local key
// override.
func serverAllowsOverride(serverURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(serverURL, "/")+"/diagnostics/model-key", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode != http.StatusNotFound
}

type replyMsg struct {
	err error
}

type threadListMsg struct {
	threads []domain.Thread
	err     error
}

type threadLister interface {
	ListThreads(ctx context.Context) ([]domain.Thread, error)
}

type model struct {
	controller *conversation.Controller
	lister     threadLister

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	width    int
	height   int
	ready    bool
	sending  bool
	status   string
	pending  []domain.ImageData
}

func newModel(controller *conversation.Controller, lister threadLister) *model {
	input := textinput.New()
	input.Placeholder = "Type a message, /attach <file> to add an image, /threads to list, Ctrl+C to quit"
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &model{
		controller: controller,
		lister:     lister,
		input:      input,
		spin:       spin,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.refreshView()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		}

	case replyMsg:
		m.sending = false
		m.status = ""
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
		}
		m.refreshView()
		m.viewport.GotoBottom()

	case threadListMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
			break
		}
		m.viewport.SetContent(renderThreads(msg.threads))
		m.viewport.GotoTop()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var inputCmd, viewportCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, viewportCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, viewportCmd)
}

func (m *model) submit() tea.Cmd {
	if m.sending {
		return nil
	}

	text := m.input.Value()
	if path, ok := strings.CutPrefix(strings.TrimSpace(text), "/attach "); ok {
		m.attach(strings.TrimSpace(path))
		m.input.Reset()
		return nil
	}
	if strings.TrimSpace(text) == "/threads" {
		m.input.Reset()
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			threads, err := m.lister.ListThreads(ctx)
			return threadListMsg{threads: threads, err: err}
		}
	}

	images := m.pending
	m.pending = nil
	m.input.Reset()
	m.sending = true
	m.status = "waiting for reply"
	m.refreshView()
	m.viewport.GotoBottom()

	return func() tea.Msg {
		_, err := m.controller.Send(context.Background(), text, images)
		return replyMsg{err: err}
	}
}

func (m *model) attach(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		m.status = errorStyle.Render(fmt.Sprintf("attaching %s: %v", path, err))
		return
	}
	mimeType := mimeTypeFor(path)
	if mimeType == "" {
		m.status = errorStyle.Render(fmt.Sprintf("unsupported image type: %s", path))
		return
	}

	m.pending = append(m.pending, domain.ImageData{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Base64:   base64.StdEncoding.EncodeToString(data),
	})
	m.status = fmt.Sprintf("attached %s (%d pending)", filepath.Base(path), len(m.pending))
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

func (m *model) refreshView() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderMessages(m.controller.Messages(), m.viewport.Width))
}

func renderMessages(messages []domain.Message, width int) string {
	var b strings.Builder
	for _, message := range messages {
		label := userStyle.Render("you")
		if message.Role == domain.RoleAssistant {
			label = assistantStyle.Render("nexa")
		}
		b.WriteString(label)
		b.WriteString("\n")
		for _, part := range message.Content {
			switch part.Type {
			case domain.PartTypeText:
				b.WriteString(lipgloss.NewStyle().Width(width).Render(part.Text))
			case domain.PartTypeImage:
				b.WriteString(attachStyle.Render("[image: " + part.Name + "]"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderThreads(threads []domain.Thread) string {
	if len(threads) == 0 {
		return statusStyle.Render("no threads yet")
	}

	var b strings.Builder
	b.WriteString("recent threads (restart with -thread <id> to resume):\n\n")
	for _, t := range threads {
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n", t.ID, t.CreatedAt.Format("2006-01-02 15:04"), t.Title))
	}
	return b.String()
}

func (m *model) View() string {
	if !m.ready {
		return "starting..."
	}

	status := m.status
	if m.sending {
		status = m.spin.View() + " " + status
	} else if status == "" && m.controller.ThreadID() != "" {
		status = statusStyle.Render("thread " + m.controller.ThreadID())
	}

	return m.viewport.View() + "\n" + status + "\n" + m.input.View()
}
