// Package tui renders a live terminal view of a running simulation:
// the concentration field as a color heatmap next to a stats panel
// with a total-mass sparkline.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"

	"github.com/reactsim/reactsim/internal/bruss"
	"github.com/reactsim/reactsim/internal/grid"
	"github.com/reactsim/reactsim/internal/ode"
)

const historyCapacity = 600

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps the reaction-diffusion system on each frame tick and
// renders the current field.
type Model struct {
	sys        ode.System
	integrator ode.Integrator
	g          grid.Grid

	state        ode.State
	initialState ode.State
	t, dt        float64

	running       bool
	component     int // 0 renders u, 1 renders v
	stepsPerFrame int
	massHistory   []float64
	err           error
}

func NewModel(g grid.Grid, sys ode.System, integ ode.Integrator, initial ode.State, dt float64) Model {
	return Model{
		sys:           sys,
		integrator:    integ,
		g:             g,
		state:         initial.Clone(),
		initialState:  initial.Clone(),
		dt:            dt,
		running:       true,
		stepsPerFrame: 4,
		massHistory:   make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.component = 1 - m.component
		case "+", "=":
			if m.stepsPerFrame < 64 {
				m.stepsPerFrame *= 2
			}
		case "-", "_":
			if m.stepsPerFrame > 1 {
				m.stepsPerFrame /= 2
			}
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	for i := 0; i < m.stepsPerFrame; i++ {
		next, err := m.integrator.Step(m.sys, m.state, m.t, m.dt)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.state = next
		if sr, ok := m.integrator.(ode.StatReporter); ok && sr.Stats().LastStepSize > 0 {
			m.t += sr.Stats().LastStepSize
		} else {
			m.t += m.dt
		}
	}

	m.massHistory = append(m.massHistory, floats.Sum(m.state))
	if len(m.massHistory) > historyCapacity {
		m.massHistory = m.massHistory[1:]
	}
}

func (m *Model) reset() {
	m.t = 0
	m.err = nil
	m.running = true
	m.state = m.initialState.Clone()
	m.massHistory = m.massHistory[:0]
}

func (m Model) View() string {
	field, err := grid.FieldFrom(m.g.N, m.state)
	if err != nil {
		return errorStyle.Render(err.Error())
	}

	canvasView := canvasStyle.Render(m.heatmap(field))

	var s strings.Builder
	s.WriteString(headerStyle.Render("BRUSSELATOR") + "\n")
	status := "RUNNING"
	if m.err != nil {
		status = errorStyle.Render("FAILED: " + m.err.Error())
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.massHistory) > 1 {
		chart := asciigraph.Plot(m.massHistory,
			asciigraph.Height(4),
			asciigraph.Width(28),
			asciigraph.Caption("total mass"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	name := "u"
	if m.component == 1 {
		name = "v"
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3f", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Grid") + valueStyle.Render(fmt.Sprintf("%dx%d", m.g.N, m.g.N)) + "\n")
	s.WriteString(labelStyle.Render("Component") + valueStyle.Render(name) + "\n")
	s.WriteString(labelStyle.Render("Steps/frame") + valueStyle.Render(fmt.Sprintf("%d", m.stepsPerFrame)) + "\n")
	if p, ok := m.sys.(*bruss.Evaluator); ok {
		params := p.Params()
		s.WriteString(labelStyle.Render("A, B") + valueStyle.Render(fmt.Sprintf("%.2f, %.2f", params.A, params.B)) + "\n")
		s.WriteString(labelStyle.Render("Alpha") + valueStyle.Render(fmt.Sprintf("%.4g", params.Alpha)) + "\n")
	}
	if sr, ok := m.integrator.(ode.StatReporter); ok {
		s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", sr.Stats().StepCount)) + "\n")
	}
	s.WriteString(helpStyle.Render("\nSP:Pause R:Reset Tab:u/v\n+/-:Speed Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// heatmap renders one component as two-character cells with a
// blue-to-red background ramp; j=0 sits at the bottom row.
func (m Model) heatmap(f grid.Field) string {
	value := f.U
	if m.component == 1 {
		value = f.V
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < f.N; i++ {
		for j := 0; j < f.N; j++ {
			v := value(i, j)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	for j := f.N - 1; j >= 0; j-- {
		for i := 0; i < f.N; i++ {
			frac := (value(i, j) - lo) / span
			style := lipgloss.NewStyle().Background(lipgloss.Color(rampColor(frac)))
			sb.WriteString(style.Render("  "))
		}
		if j > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// rampColor maps [0,1] onto blue through purple to red.
func rampColor(frac float64) string {
	frac = math.Max(0, math.Min(1, frac))
	r := int(255 * frac)
	b := int(255 * (1 - frac))
	g := int(64 * (1 - math.Abs(2*frac-1)))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
