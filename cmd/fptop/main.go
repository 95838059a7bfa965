// fptop is a terminal dashboard for a running flashpoint server: one row per
// monitored target, refreshed on an interval.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	midStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type targetEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type summary struct {
	Success     bool      `json:"success"`
	Target      string    `json:"target"`
	Name        string    `json:"name"`
	Probability int       `json:"probability"`
	Timeline    string    `json:"timeline"`
	Confidence  string    `json:"confidence"`
	Momentum    string    `json:"momentum"`
	Records     int       `json:"records"`
	GeneratedAt time.Time `json:"generated_at"`
	Stale       bool      `json:"stale"`
}

type targetsMsg []targetEntry
type summariesMsg []summary
type errMsg struct{ err error }
type tickMsg time.Time

type model struct {
	baseURL  string
	client   *http.Client
	interval time.Duration

	targets   []targetEntry
	summaries []summary
	spin      spinner.Model
	loading   bool
	err       error
	updated   time.Time
}

func newModel(baseURL string, interval time.Duration) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		interval: interval,
		spin:     sp,
		loading:  true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchTargets)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.fetchSummaries
		}

	case targetsMsg:
		m.targets = msg
		return m, m.fetchSummaries

	case summariesMsg:
		m.summaries = msg
		m.loading = false
		m.err = nil
		m.updated = time.Now()
		return m, m.tick()

	case errMsg:
		m.err = msg.err
		m.loading = false
		return m, m.tick()

	case tickMsg:
		m.loading = true
		return m, m.fetchSummaries

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b []byte
	b = append(b, titleStyle.Render("flashpoint")...)
	if m.loading {
		b = append(b, ' ')
		b = append(b, m.spin.View()...)
	}
	b = append(b, '\n', '\n')

	if m.err != nil {
		b = append(b, errStyle.Render("error: "+m.err.Error())...)
		b = append(b, '\n', '\n')
	}

	b = append(b, headerStyle.Render(fmt.Sprintf("%-14s %6s  %-12s %-8s %-12s %7s",
		"TARGET", "PROB", "TIMELINE", "CONF", "MOMENTUM", "RECORDS"))...)
	b = append(b, '\n')

	for _, s := range m.summaries {
		prob := probStyle(s.Probability).Render(fmt.Sprintf("%5d%%", s.Probability))
		row := fmt.Sprintf("%-14s %s  %-12s %-8s %-12s %7d",
			s.Name, prob, s.Timeline, s.Confidence, momentumArrow(s.Momentum), s.Records)
		if s.Stale {
			row += dimStyle.Render("  (stale)")
		}
		b = append(b, row...)
		b = append(b, '\n')
	}

	b = append(b, '\n')
	status := "r refresh · q quit"
	if !m.updated.IsZero() {
		status = fmt.Sprintf("updated %s · %s", m.updated.Format("15:04:05"), status)
	}
	b = append(b, dimStyle.Render(status)...)
	b = append(b, '\n')
	return string(b)
}

func probStyle(p int) lipgloss.Style {
	switch {
	case p >= 60:
		return highStyle
	case p >= 30:
		return midStyle
	default:
		return lowStyle
	}
}

func momentumArrow(m string) string {
	switch m {
	case "increasing":
		return "↑ " + m
	case "decreasing":
		return "↓ " + m
	default:
		return "→ " + m
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) fetchTargets() tea.Msg {
	var payload struct {
		Targets []targetEntry `json:"targets"`
	}
	if err := m.getJSON("/api/targets", &payload); err != nil {
		return errMsg{err}
	}
	return targetsMsg(payload.Targets)
}

func (m model) fetchSummaries() tea.Msg {
	out := make([]summary, 0, len(m.targets))
	for _, t := range m.targets {
		var s summary
		if err := m.getJSON("/api/threat/"+t.ID+"/summary", &s); err != nil {
			return errMsg{err}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	return summariesMsg(out)
}

func (m model) getJSON(path string, v any) error {
	resp, err := m.client.Get(m.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "flashpoint server address")
	interval := flag.Duration("interval", time.Minute, "refresh interval")
	flag.Parse()

	p := tea.NewProgram(newModel(*addr, *interval))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "fptop: %v\n", err)
		os.Exit(1)
	}
}
