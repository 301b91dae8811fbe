package viz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/llmvis/internal/app"
	"github.com/san-kum/llmvis/internal/logging"
	"github.com/san-kum/llmvis/internal/netsim"
	"github.com/san-kum/llmvis/internal/sim"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	sidebarWidth    = 46
	historyCapacity = 300
	maxFrameDt      = 0.1
	// mouseLook converts a drag of one terminal cell into camera offset units.
	mouseLook = 20.0
	keyLook   = 40.0
)

type TickMsg time.Time

// Options configure the terminal frontend.
type Options struct {
	DataDir string
	FPS     int
	Theme   string
	Logger  *slog.Logger
}

var lookKeys = map[string][2]float64{
	"i": {0, keyLook},
	"k": {0, -keyLook},
	"j": {-keyLook, 0},
	"l": {keyLook, 0},
}

// Live is the Bubble Tea model that drives a session at a fixed tick rate.
type Live struct {
	session  *app.Session
	renderer *CanvasRenderer
	styles   Styles
	opts     Options
	logger   *slog.Logger

	width, height int
	pending       app.Input
	lastTick      time.Time
	frame         int

	prompting bool
	promptBuf string

	dragging   bool
	dragMoved  bool
	lastMouseX int
	lastMouseY int

	history  []float64
	layers   []float64
	recorder *Recorder
	message  string
}

func NewLive(s *app.Session, opts Options) Live {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Theme != "" {
		SetTheme(opts.Theme)
	}
	canvas := NewCanvas(defaultWidth-sidebarWidth, defaultHeight-2)
	return Live{
		session:  s,
		renderer: NewCanvasRenderer(canvas, s.Camera),
		styles:   NewStyles(CurrentTheme),
		opts:     opts,
		logger:   opts.Logger,
		width:    defaultWidth,
		height:   defaultHeight,
		history:  make([]float64, 0, historyCapacity),
	}
}

func (m Live) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Live) Init() tea.Cmd {
	return m.tick()
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompting {
			m.promptKey(msg)
			return m, nil
		}
		m.key(msg.String())
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if done := m.step(time.Time(msg)); done {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Live) key(k string) {
	switch k {
	case "enter", "/":
		m.prompting = true
		m.promptBuf = ""
		return
	case "g":
		m.toggleRecording()
		return
	case "t":
		CurrentTheme = NextTheme(CurrentTheme)
		m.styles = NewStyles(CurrentTheme)
		m.renderer.Theme = CurrentTheme
		return
	}
	if d, ok := lookKeys[k]; ok {
		m.pending.LookDX += d[0]
		m.pending.LookDY += d[1]
		return
	}
	m.pending.ParseKey(k)
}

func (m *Live) promptKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		m.pending.Prompt = m.promptBuf
		m.prompting = false
	case tea.KeyEsc:
		m.prompting = false
	case tea.KeyCtrlC:
		m.prompting = false
		m.pending.Actions = append(m.pending.Actions, app.ActionQuit)
	case tea.KeyBackspace:
		if r := []rune(m.promptBuf); len(r) > 0 {
			m.promptBuf = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.promptBuf += " "
	case tea.KeyRunes:
		m.promptBuf += string(msg.Runes)
	}
}

// mouse turns drags into camera look, clicks into picks and the wheel into
// zoom. Positions are converted from terminal cells to canvas dots.
func (m *Live) mouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.pending.Scroll++
	case msg.Button == tea.MouseButtonWheelDown:
		m.pending.Scroll--
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.dragging, m.dragMoved = true, false
		m.lastMouseX, m.lastMouseY = msg.X, msg.Y
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.pending.LookDX += float64(msg.X-m.lastMouseX) * mouseLook
		m.pending.LookDY -= float64(msg.Y-m.lastMouseY) * mouseLook
		m.dragMoved = m.dragMoved || msg.X != m.lastMouseX || msg.Y != m.lastMouseY
		m.lastMouseX, m.lastMouseY = msg.X, msg.Y
	case msg.Action == tea.MouseActionRelease:
		if m.dragging && !m.dragMoved {
			// canvas starts below the one-line header
			m.pending.Click = &app.Point{X: float64(msg.X*2 + 1), Y: float64((msg.Y-1)*4 + 2)}
		}
		m.dragging = false
	}
}

func (m *Live) resize(w, h int) {
	m.width, m.height = w, h
	cw := max(10, w-sidebarWidth-1)
	ch := max(5, h-2)
	m.renderer.Canvas = NewCanvas(cw, ch)
}

// step runs one session frame. It reports true when the session is done.
func (m *Live) step(now time.Time) bool {
	dt := 1.0 / float64(m.opts.FPS)
	if !m.lastTick.IsZero() {
		dt = min(now.Sub(m.lastTick).Seconds(), maxFrameDt)
	}
	m.lastTick = now

	in := m.pending
	m.pending = app.Input{}
	in.Width = m.renderer.Canvas.SubWidth()
	in.Height = m.renderer.Canvas.SubHeight()

	m.renderer.Begin()
	if err := m.session.Frame(in, dt, m.renderer); err != nil {
		m.message = err.Error()
	}
	m.frame++

	snap := sim.Snapshot(m.session.Model)
	m.layers = snap
	m.history = append(m.history, snap.Mean())
	if len(m.history) > historyCapacity {
		m.history = m.history[len(m.history)-historyCapacity:]
	}
	if m.recorder != nil {
		m.recorder.Capture(m.renderer.Canvas)
	}

	if m.session.Done() {
		if m.recorder != nil {
			m.toggleRecording()
		}
		return true
	}
	return false
}

func (m *Live) toggleRecording() {
	if m.recorder == nil {
		m.recorder = NewRecorder(CurrentTheme)
		m.message = "recording"
		return
	}
	rec := m.recorder
	m.recorder = nil
	if rec.Len() == 0 {
		m.message = ""
		return
	}
	path, err := rec.Save(m.opts.DataDir)
	if err != nil {
		m.logger.Error("save recording", "err", err)
		m.message = "recording failed: " + err.Error()
		return
	}
	m.logger.Info("recording saved", "path", path, "frames", rec.Len())
	m.message = "saved " + path
}

func (m Live) View() string {
	s := m.styles
	ctrl := m.session.Controller

	title := GradientText("LLMVIS", CurrentTheme.Primary, CurrentTheme.Secondary) + " " +
		s.Muted.Render(m.session.Model.Name())
	status := s.Running.Render(AnimatedSpinner(m.frame) + " " + ctrl.State().String())
	if ctrl.IsPaused() {
		status = s.Paused.Render("■ " + ctrl.State().String())
	}
	if m.recorder != nil {
		status += " " + s.Recording.Render("● REC")
	}
	header := title + "  " + status

	var b strings.Builder
	b.WriteString(s.Label.Render("Step") + s.Value.Render(fmt.Sprintf("%d/%d ", ctrl.Step(), sim.MaxStep)) +
		s.Muted.Render(ProgressBar(float64(ctrl.Step())/sim.MaxStep, 12)) + "\n")
	b.WriteString(s.Label.Render("Speed") + s.Value.Render(fmt.Sprintf("%.2fx", ctrl.Speed())) + "\n")
	b.WriteString(s.Label.Render("Sweep") + s.Value.Render(m.session.Model.CurrentActivation()) + "\n")
	b.WriteString(s.Label.Render("Input") + s.Value.Render(truncate(m.session.Model.CurrentInput(), sidebarWidth-16)) + "\n")
	if sel := m.session.Selection(); sel != nil {
		what := fmt.Sprintf("layer %d", sel.Layer)
		if sel.Head >= 0 {
			what += fmt.Sprintf(" head %d", sel.Head)
		}
		b.WriteString(s.Label.Render("Selected") + s.Selected.Render(what) + "\n")
	}
	b.WriteString("\n" + s.Label.Render("Layers") + LayerBars(m.layers, m.layerColor) + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(5),
			asciigraph.Width(sidebarWidth-14),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.Caption("mean activation"))
		b.WriteString("\n" + s.Graph.Render(chart) + "\n")
	}

	b.WriteString("\n" + s.Muted.Render(Separator(sidebarWidth-6)) + "\n")
	if m.prompting {
		b.WriteString(s.Prompt.Render("> "+m.promptBuf+"_") + "\n")
	} else {
		b.WriteString(s.KeyHint.Render("enter:prompt 1-5:experiment g:rec t:theme") + "\n")
		b.WriteString(s.KeyHint.Render("ijkl/drag:look wasdqe:move h:help esc:quit") + "\n")
	}
	if m.message != "" {
		b.WriteString(s.Muted.Render(truncate(m.message, sidebarWidth-6)) + "\n")
	}

	canvas := m.renderer.Canvas.Render()
	main := lipgloss.JoinHorizontal(lipgloss.Top, canvas, s.Panel.Render(b.String()))
	view := header + "\n" + main
	if m.session.ShowHelp() {
		view = m.helpView() + "\n" + view
	}
	return view
}

func (m Live) layerColor(i int) lipgloss.Color {
	l, ok := m.session.Model.Layer(i)
	if !ok {
		return CurrentTheme.Muted
	}
	c := netsim.PaletteColor(l.Type())
	return CurrentTheme.Color(c)
}

func (m Live) helpView() string {
	lines := append([]string{}, app.HelpLines...)
	lines = append(lines,
		"i/j/k/l      look around",
		"g            start / stop GIF recording",
		"t            cycle theme",
	)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Primary).
		Padding(0, 2)
	return box.Render(m.styles.Title.Render("KEYS") + "\n" + strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// Run drives s in the terminal until the user quits or ctx is cancelled.
func Run(ctx context.Context, s *app.Session, opts Options) error {
	p := tea.NewProgram(NewLive(s, opts), tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
