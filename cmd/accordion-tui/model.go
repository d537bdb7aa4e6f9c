package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/input"
	"github.com/cwbudde/algo-accordion/instrument"
	"github.com/cwbudde/algo-accordion/layout"
	"github.com/cwbudde/algo-accordion/render"
)

const tickInterval = 20 * time.Millisecond

var (
	naturalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("252"))
	sharpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(lipgloss.Color("208")).Bold(true)
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// model is the bubbletea front end. Terminals report key presses and
// auto-repeat but no releases, so a key counts as held until no press for
// it arrives within the hold window.
type model struct {
	session  *instrument.Session
	renderer *render.Renderer
	log      zerolog.Logger
	hold     time.Duration
	now      func() time.Time

	lastSeen map[string]time.Time
	active   map[int]bool
	status   string
	warn     string
}

func newModel(s *instrument.Session, r *render.Renderer, hold time.Duration, log zerolog.Logger) *model {
	m := &model{
		session:  s,
		renderer: r,
		log:      log,
		hold:     hold,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
		active:   make(map[int]bool),
	}
	s.OnVoiceChange(func(pitch int, on bool) {
		if on {
			m.active[pitch] = true
		} else {
			delete(m.active, pitch)
		}
	})
	if !s.Ready() {
		m.warn = "samples not loaded, instrument is silent"
	}
	return m
}

func (m *model) Init() tea.Cmd { return tick() }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.BlurMsg:
		m.log.Debug().Int("held", len(m.lastSeen)).Msg("focus lost")
		m.session.Handle(input.Blur{})
		clear(m.lastSeen)
		m.status = "focus lost, all notes released"
	case tea.KeyMsg:
		return m, m.key(msg)
	case tickMsg:
		m.expire()
		return m, tick()
	}
	return m, nil
}

func (m *model) key(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.session.ReleaseAll()
		return tea.Quit
	case tea.KeyPgUp:
		m.status = fmt.Sprintf("volume %.2f", m.session.SetMasterVolume(m.session.MasterVolume()+0.1))
		return nil
	case tea.KeyPgDown:
		m.status = fmt.Sprintf("volume %.2f", m.session.SetMasterVolume(m.session.MasterVolume()-0.1))
		return nil
	case tea.KeyF5, tea.KeyF6:
		d := m.session.ReverbDuration() - 0.1
		if msg.Type == tea.KeyF6 {
			d += 0.2
		}
		if err := m.session.SetReverbDuration(d); err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("reverb %.1fs", d)
		}
		return nil
	}

	code := keyCode(msg)
	if code == "" {
		return nil
	}
	if strings.HasPrefix(code, "Arrow") {
		// Layout shortcuts release every note, so held keys start over.
		m.session.Handle(input.KeyDown{Code: code})
		clear(m.lastSeen)
		m.status = fmt.Sprintf("system %v, offset %d", m.session.System(), m.session.Offset())
		return nil
	}
	if _, held := m.lastSeen[code]; !held {
		m.session.Handle(input.KeyDown{Code: code})
	}
	m.lastSeen[code] = m.now()
	return nil
}

// expire releases keys whose repeat stream has stopped.
func (m *model) expire() {
	now := m.now()
	for code, seen := range m.lastSeen {
		if now.Sub(seen) > m.hold {
			delete(m.lastSeen, code)
			m.session.Handle(input.KeyUp{Code: code})
		}
	}
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("algo-accordion"))
	b.WriteString("\n\n")
	for i, row := range m.session.Rows() {
		b.WriteString(strings.Repeat("   ", i))
		for _, kp := range row {
			b.WriteString(m.keyCell(kp))
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"system %v  offset %d  volume %.2f  reverb %.1fs  voices %d  sources %d",
		m.session.System(), m.session.Offset(), m.session.MasterVolume(),
		m.session.ReverbDuration(), len(m.active), m.renderer.Sources())))
	b.WriteString("\n")
	if d := m.renderer.Dropped(); d > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d audio commands dropped", d)))
		b.WriteString("\n")
	}
	if m.warn != "" {
		b.WriteString(warnStyle.Render(m.warn))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("←/→ shift  ↑ system C  ↓ system B  PgUp/PgDn volume  F5/F6 reverb  esc quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *model) keyCell(kp layout.KeyPitch) string {
	label := codeLabel(kp.Key)
	if !kp.Mapped() {
		return emptyStyle.Render(fmt.Sprintf(" %-1s  ---  ", label))
	}
	text := fmt.Sprintf(" %-1s %-5s ", label, layout.PitchName(kp.Pitch))
	switch {
	case m.active[kp.Pitch]:
		return activeStyle.Render(text)
	case layout.IsSharp(kp.Pitch):
		return sharpStyle.Render(text)
	}
	return naturalStyle.Render(text)
}
