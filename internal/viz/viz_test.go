package viz

import (
	"bytes"
	"image/gif"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/llmvis/internal/app"
	"github.com/san-kum/llmvis/internal/camera"
	"github.com/san-kum/llmvis/internal/config"
	"github.com/san-kum/llmvis/internal/geom"
	"github.com/san-kum/llmvis/internal/netsim"
)

func TestCanvasDots(t *testing.T) {
	c := NewCanvas(4, 2)
	if c.SubWidth() != 8 || c.SubHeight() != 8 {
		t.Fatalf("sub size = %dx%d, want 8x8", c.SubWidth(), c.SubHeight())
	}

	c.Set(3, 5)
	if !c.IsSet(3, 5) {
		t.Error("dot not set")
	}
	if c.Grid[1][1] != blank|0x10 {
		t.Errorf("cell = %U", c.Grid[1][1])
	}
	c.Unset(3, 5)
	if c.IsSet(3, 5) || c.Grid[1][1] != blank {
		t.Error("dot not cleared")
	}

	// out of range is ignored
	c.Set(-1, 0)
	c.Set(100, 100)
	if strings.Count(c.String(), "\n") != 2 {
		t.Errorf("rows = %d", strings.Count(c.String(), "\n"))
	}
}

func TestCanvasShapes(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 19, "#ffffff")
	if !c.IsSet(0, 0) || !c.IsSet(19, 19) || !c.IsSet(10, 10) {
		t.Error("line endpoints or midpoint missing")
	}
	if c.Colors[0][0] != "#ffffff" {
		t.Errorf("color = %q", c.Colors[0][0])
	}

	c.Clear()
	c.FillCircle(10, 10, 2, "#ff0000")
	for _, p := range [][2]int{{10, 10}, {12, 10}, {10, 8}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("circle missing %v", p)
		}
	}
	if c.IsSet(12, 12) {
		t.Error("corner outside radius should be empty")
	}
	if c.Render() == "" {
		t.Error("empty render")
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != "default" {
		t.Error("unknown theme should fall back to default")
	}
	if NextTheme(Themes[len(Themes)-1]).Name != Themes[0].Name {
		t.Error("NextTheme should wrap")
	}

	tests := []struct {
		c    netsim.Color
		want string
	}{
		{netsim.White, "#ffffff"},
		{netsim.Color{R: 1, G: 1, B: 1, A: 0.5}, "#808080"},
		{netsim.Color{R: 1, G: 0, B: 0, A: 1}, "#ff0000"},
	}
	for _, tt := range tests {
		if got := string(ThemeDefault.Color(tt.c)); got != tt.want {
			t.Errorf("Color(%v) = %s, want %s", tt.c, got, tt.want)
		}
	}

	if got := string(ThemeRetro.Color(netsim.White)); got != "#00ff00" {
		t.Errorf("full tint = %s, want primary", got)
	}
}

func TestRendererProject(t *testing.T) {
	r := NewCanvasRenderer(NewCanvas(40, 20), camera.New(geom.Vec3{Z: 5}))
	r.Begin()

	x, y, depth, ok := r.Project(geom.Vec3{})
	if !ok {
		t.Fatal("origin should be visible")
	}
	if absInt(x-40) > 1 || absInt(y-40) > 1 {
		t.Errorf("origin at (%d,%d), want center (40,40)", x, y)
	}
	if depth < 4.99 || depth > 5.01 {
		t.Errorf("depth = %v, want 5", depth)
	}

	_, y2, _, _ := r.Project(geom.Vec3{Y: 1})
	if y2 >= y {
		t.Error("positive y should project upward")
	}

	if _, _, _, ok := r.Project(geom.Vec3{Z: 10}); ok {
		t.Error("point behind the camera should not project")
	}
}

func newTestSession(t *testing.T) *app.Session {
	t.Helper()
	s, err := app.NewSession(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func litDots(c *Canvas) int {
	n := 0
	for y := 0; y < c.SubHeight(); y++ {
		for x := 0; x < c.SubWidth(); x++ {
			if c.IsSet(x, y) {
				n++
			}
		}
	}
	return n
}

func TestRendererDrawsSession(t *testing.T) {
	s := newTestSession(t)
	r := NewCanvasRenderer(NewCanvas(60, 30), s.Camera)
	r.Begin()
	s.Render(r, r.Canvas.SubWidth(), r.Canvas.SubHeight())

	if litDots(r.Canvas) == 0 {
		t.Error("nothing drawn")
	}
	if len(r.Overlay) != len(s.HUDLines()) {
		t.Errorf("overlay = %d lines, want %d", len(r.Overlay), len(s.HUDLines()))
	}
	if r.Rects != 1 {
		t.Errorf("rects = %d, want 1", r.Rects)
	}

	r.Begin()
	if litDots(r.Canvas) != 0 || len(r.Overlay) != 0 {
		t.Error("Begin should reset the frame")
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder(ThemeDefault)
	var buf bytes.Buffer
	if err := rec.Encode(&buf); err == nil {
		t.Error("expected error for empty recording")
	}

	c := NewCanvas(4, 2)
	c.Set(0, 0)
	rec.Capture(c)
	rec.Capture(c)

	if err := rec.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Image) != 2 {
		t.Errorf("frames = %d, want 2", len(g.Image))
	}
	if b := g.Image[0].Bounds(); b.Dx() != 4*gifCharW || b.Dy() != 2*gifCharH {
		t.Errorf("bounds = %v", b)
	}
	if g.Image[0].ColorIndexAt(0, 0) != 1 || g.Image[0].ColorIndexAt(gifCharW, 0) != 0 {
		t.Error("dot not rasterized")
	}
}

func TestRecorderSave(t *testing.T) {
	rec := NewRecorder(ThemeDefault)
	rec.Capture(NewCanvas(2, 1))
	path, err := rec.Save(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, ".gif") || !strings.Contains(path, "recordings") {
		t.Errorf("path = %s", path)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m tea.Model, msgs ...tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

func TestLivePauseAndTick(t *testing.T) {
	s := newTestSession(t)
	now := time.Now()

	m, _ := send(NewLive(s, Options{DataDir: t.TempDir()}), key(" "), TickMsg(now))
	if !s.Controller.IsPaused() {
		t.Error("space should pause")
	}
	live := m.(Live)
	if live.frame != 1 || len(live.history) != 1 {
		t.Errorf("frame=%d history=%d", live.frame, len(live.history))
	}
	if len(live.layers) != s.Model.LayerCount() {
		t.Errorf("layers = %d", len(live.layers))
	}
}

func TestLivePrompt(t *testing.T) {
	s := newTestSession(t)
	m, _ := send(NewLive(s, Options{}), key("enter"))
	if !m.(Live).prompting {
		t.Fatal("enter should open the prompt")
	}

	m, _ = send(m, key("Hello"), key(" "), key("world"), key("enter"), TickMsg(time.Now()))
	if s.Model.CurrentInput() != "Hello world" {
		t.Errorf("input = %q", s.Model.CurrentInput())
	}
	if m.(Live).prompting {
		t.Error("prompt should close on enter")
	}
}

func TestLiveQuit(t *testing.T) {
	s := newTestSession(t)
	_, cmd := send(NewLive(s, Options{}), key("esc"), TickMsg(time.Now()))
	if !s.Done() {
		t.Fatal("esc should end the session")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestLiveMouseAndResize(t *testing.T) {
	s := newTestSession(t)
	m, _ := send(NewLive(s, Options{}),
		tea.WindowSizeMsg{Width: 120, Height: 40},
		tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)
	live := m.(Live)
	if live.renderer.Canvas.Width != 73 || live.renderer.Canvas.Height != 38 {
		t.Errorf("canvas = %dx%d, want 73x38", live.renderer.Canvas.Width, live.renderer.Canvas.Height)
	}
	if live.pending.Click == nil || live.pending.Click.X != 21 || live.pending.Click.Y != 18 {
		t.Errorf("click = %+v", live.pending.Click)
	}

	m, _ = send(m,
		tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 12, Y: 4, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 12, Y: 4, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)
	live = m.(Live)
	if live.pending.LookDX != 2*mouseLook || live.pending.LookDY != mouseLook {
		t.Errorf("look = %v,%v", live.pending.LookDX, live.pending.LookDY)
	}
}

func TestLiveRecordingAndView(t *testing.T) {
	s := newTestSession(t)
	dir := t.TempDir()
	m, _ := send(NewLive(s, Options{DataDir: dir}), key("g"), TickMsg(time.Now()), key("g"))
	live := m.(Live)
	if live.recorder != nil {
		t.Error("second g should stop recording")
	}
	if !strings.HasPrefix(live.message, "saved ") {
		t.Errorf("message = %q", live.message)
	}

	if v := live.View(); !strings.Contains(v, "default") {
		t.Error("view should name the model")
	}
	m, _ = send(m, key("h"), TickMsg(time.Now()))
	if v := m.(Live).View(); !strings.Contains(v, "KEYS") {
		t.Error("help overlay missing")
	}
}

func TestPicker(t *testing.T) {
	cfg := config.DefaultConfig()
	m, _ := send(newPicker(cfg, Options{}), key("j"), key("j"))
	p := m.(picker)
	if p.cursor != 2 {
		t.Errorf("cursor = %d, want 2", p.cursor)
	}
	if !strings.Contains(p.View(), "LLMVIS") {
		t.Error("menu title missing")
	}

	m, cmd := send(p, key("enter"))
	p = m.(picker)
	if p.state != stateLive || cmd == nil {
		t.Fatal("enter should start the live view")
	}
	if got, want := p.live.session.Model.Name(), p.presets[2]; got != want {
		t.Errorf("model = %q, want %q", got, want)
	}
}

func TestPresetSummary(t *testing.T) {
	got := PresetSummary(netsim.DefaultDescription())
	if got != "18 layers, 4 attention, width 512, vocab 10" {
		t.Errorf("summary = %q", got)
	}
}
