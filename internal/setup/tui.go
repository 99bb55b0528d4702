package setup

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jiva/internal/config"
)

// --- Styles ---

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle   = lipgloss.NewStyle().
			Background(lipgloss.Color("35")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1).
			Bold(true)

	docStyle = lipgloss.NewStyle().Padding(1, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Padding(0, 1)

	windowStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("35")).
			Padding(1)
)

// --- Types ---

type state int

const (
	stateAccessToken state = iota
	statePhoneID
	stateVerifyToken
	stateProvider
	stateAPIKey
	stateModel
	stateDone
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type TUIModel struct {
	state state
	cfg   config.Config

	list     list.Model
	input    textinput.Model
	err      error
	quitting bool
	width    int
	height   int
}

// --- Ollama Discovery ---

type ollamaModel struct {
	Name string `json:"name"`
}

type ollamaResponse struct {
	Models []ollamaModel `json:"models"`
}

func fetchOllamaModels() []item {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://localhost:11434/api/tags")
	if err != nil {
		return []item{{title: "llama3.2", desc: "Default fallback (Ollama not responding)"}}
	}
	defer resp.Body.Close()

	var data ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return []item{{title: "llama3.2", desc: "Error parsing models"}}
	}

	items := make([]item, len(data.Models))
	for i, m := range data.Models {
		items[i] = item{title: m.Name, desc: "Local Ollama model"}
	}
	return items
}

// --- Initial Model ---

func NewTUIModel() TUIModel {
	providers := []list.Item{
		item{title: "gemini", desc: "Google Gemini models (requires API Key)"},
		item{title: "groq", desc: "Groq-hosted Llama models (requires API Key)"},
		item{title: "openai", desc: "OpenAI GPT models (requires API Key)"},
		item{title: "ollama", desc: "Local execution via Ollama"},
	}

	l := list.New(providers, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select AI Provider"
	l.SetShowHelp(false)

	ti := textinput.New()
	ti.Prompt = "WhatsApp Access Token: "
	ti.Placeholder = "EAAG..."
	ti.Focus()

	return TUIModel{
		state: stateAccessToken,
		list:  l,
		input: ti,
	}
}

func (m TUIModel) Init() tea.Cmd {
	return nil
}

func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-10, msg.Height-15)

	case error:
		m.err = msg
		return m, tea.Quit
	}

	var cmd tea.Cmd

	switch m.state {
	case stateAccessToken:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			m.cfg.AccessToken = strings.TrimSpace(m.input.Value())
			m.state = statePhoneID
			m.input.Prompt = "Phone Number ID: "
			m.input.Placeholder = "15-digit number from the API Setup page"
			m.input.SetValue("")
		}

	case statePhoneID:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			m.cfg.PhoneNumberID = strings.TrimSpace(m.input.Value())
			m.state = stateVerifyToken
			m.input.Prompt = "Webhook Verify Token: "
			m.input.Placeholder = "any secret string, repeated in the Meta webhook form"
			m.input.SetValue("")
		}

	case stateVerifyToken:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			m.cfg.VerifyToken = strings.TrimSpace(m.input.Value())
			m.state = stateProvider
		}

	case stateProvider:
		m.list, cmd = m.list.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			i, ok := m.list.SelectedItem().(item)
			if ok {
				m.cfg.Provider = i.title
				if m.cfg.Provider == "ollama" {
					m.cfg.BaseURL = "http://localhost:11434"
					models := fetchOllamaModels()
					listItems := make([]list.Item, len(models))
					for i, it := range models {
						listItems[i] = it
					}
					m.list.SetItems(listItems)
					m.list.Title = "Select Local Model"
					m.state = stateModel
				} else {
					m.state = stateAPIKey
					m.input.Prompt = fmt.Sprintf("%s API Key: ", strings.ToUpper(m.cfg.Provider[:1])+m.cfg.Provider[1:])
					m.input.Placeholder = ""
					m.input.SetValue("")
				}
			}
		}

	case stateAPIKey:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			m.cfg.APIKey = strings.TrimSpace(m.input.Value())
			m.list.SetItems(cloudModels(m.cfg.Provider))
			m.list.Title = "Select Model"
			m.state = stateModel
		}

	case stateModel:
		m.list, cmd = m.list.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			i, ok := m.list.SelectedItem().(item)
			if ok {
				m.cfg.Model = i.title
				m.state = stateDone
				return m, m.saveConfig()
			}
		}

	case stateDone:
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

func cloudModels(provider string) []list.Item {
	switch provider {
	case "groq":
		return []list.Item{
			item{title: "llama-3.3-70b-versatile", desc: "Best Groq-hosted model"},
			item{title: "llama-3.1-8b-instant", desc: "Fast Groq-hosted model"},
		}
	case "openai":
		return []list.Item{
			item{title: "gpt-4o", desc: "Best OpenAI model"},
			item{title: "gpt-4o-mini", desc: "Fast OpenAI model"},
		}
	default:
		return []list.Item{
			item{title: "gemini-2.0-flash", desc: "Fast Google model"},
			item{title: "gemini-2.5-pro", desc: "Powerful Google model"},
		}
	}
}

func (m TUIModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(" Jiva Setup Wizard "))
	s.WriteString("\n\n")

	tabs := []string{"WhatsApp", "Provider", "Model", "Finish"}
	currentTab := 0
	switch m.state {
	case stateAccessToken, statePhoneID, stateVerifyToken:
		currentTab = 0
	case stateProvider, stateAPIKey:
		currentTab = 1
	case stateModel:
		currentTab = 2
	case stateDone:
		currentTab = 3
	}

	var renderedTabs []string
	for i, t := range tabs {
		if i == currentTab {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(t))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(t))
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...))
	s.WriteString("\n\n")

	var content string
	switch m.state {
	case stateProvider, stateModel:
		content = m.list.View()
	case stateAccessToken:
		content = "\nPaste the permanent token from docs/GET_PERMANENT_TOKEN.md.\n\n" +
			m.input.View() + "\n\n" + helpStyle.Render("Press enter to continue")
	case statePhoneID, stateVerifyToken, stateAPIKey:
		content = "\n" + m.input.View() + "\n\n" + helpStyle.Render("Press enter to continue")
	case stateDone:
		content = fmt.Sprintf("\nSaving configuration to %s...\nDone! Press any key to exit.", config.DefaultPath)
	}

	s.WriteString(windowStyle.Width(m.width - 10).Render(content))

	if m.state != stateDone {
		s.WriteString("\n\n" + helpStyle.Render("ctrl+c: quit • ↑/↓: navigate • enter: select"))
	}

	return docStyle.Render(s.String())
}

func (m TUIModel) saveConfig() tea.Cmd {
	return func() tea.Msg {
		cfg := m.cfg
		if err := cfg.SaveToFile(config.DefaultPath); err != nil {
			return err
		}
		return nil
	}
}

// RunTUI launches the full-screen setup wizard.
func RunTUI() error {
	p := tea.NewProgram(NewTUIModel(), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(TUIModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
