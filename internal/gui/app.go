// Package gui is the windowed frontend built on raylib.
package gui

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/llmvis/internal/app"
	"github.com/san-kum/llmvis/internal/audio"
	"github.com/san-kum/llmvis/internal/config"
	"github.com/san-kum/llmvis/internal/logging"
	"github.com/san-kum/llmvis/internal/netsim"
)

const fontPath = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"

var (
	ColBg     = rl.NewColor(10, 10, 10, 255)
	ColPrompt = rl.NewColor(255, 217, 77, 255)
	ColDim    = rl.NewColor(100, 100, 100, 255)
)

// keyNames maps raylib keys that trigger once per press to the session key
// names.
var keyNames = map[int32]string{
	rl.KeySpace:      "space",
	rl.KeyRight:      "right",
	rl.KeyLeft:       "left",
	rl.KeyEqual:      "=",
	rl.KeyKpAdd:      "+",
	rl.KeyMinus:      "-",
	rl.KeyKpSubtract: "-",
	rl.KeyH:          "h",
	rl.KeyF:          "f",
	rl.KeyC:          "c",
	rl.KeyEscape:     "esc",
	rl.KeyOne:        "1",
	rl.KeyTwo:        "2",
	rl.KeyThree:      "3",
	rl.KeyFour:       "4",
	rl.KeyFive:       "5",
}

// moveKeys are polled every frame while held.
var moveKeys = map[int32]string{
	rl.KeyW: "w",
	rl.KeyS: "s",
	rl.KeyA: "a",
	rl.KeyD: "d",
	rl.KeyQ: "q",
	rl.KeyE: "e",
}

type App struct {
	session  *app.Session
	renderer *Renderer
	sound    *audio.Sonifier
	window   config.WindowConfig
	logger   *slog.Logger

	font      rl.Font
	prompting bool
	promptBuf []rune
}

type Option func(*App)

func WithLogger(l *slog.Logger) Option      { return func(a *App) { a.logger = l } }
func WithSonifier(s *audio.Sonifier) Option { return func(a *App) { a.sound = s } }

// Run opens the window and drives s until the window closes, the session
// quits or ctx is cancelled.
func Run(ctx context.Context, s *app.Session, window config.WindowConfig, opts ...Option) error {
	a := &App{session: s, window: window}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}

	if err := a.init(); err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("window open", "width", window.Width, "height", window.Height)
	for !rl.WindowShouldClose() && !s.Done() {
		if ctx.Err() != nil {
			break
		}
		a.frame()
	}
	return nil
}

func (a *App) init() error {
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(int32(a.window.Width), int32(a.window.Height), a.window.Title)
	if !rl.IsWindowReady() {
		return fmt.Errorf("%w: could not open a %dx%d window", app.ErrInit, a.window.Width, a.window.Height)
	}
	fps := a.window.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	rl.SetTargetFPS(int32(fps))
	rl.SetExitKey(0)

	hasFont := false
	if _, err := os.Stat(fontPath); err == nil {
		a.font = rl.LoadFontEx(fontPath, 32, nil, 0)
		rl.SetTextureFilter(a.font.Texture, rl.FilterBilinear)
		hasFont = true
	}
	a.renderer = NewRenderer(a.font, hasFont)
	return nil
}

func (a *App) close() {
	if a.renderer != nil && a.renderer.hasFont {
		rl.UnloadFont(a.font)
	}
	rl.CloseWindow()
}

func (a *App) frame() {
	in := a.input()
	dt := float64(rl.GetFrameTime())

	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	a.renderer.Begin(a.session.Camera)
	if err := a.session.Frame(in, dt, a.renderer); err != nil {
		a.logger.Warn("frame error", "err", err)
	}
	a.overlay(in.Width, in.Height)
	a.renderer.End()
	rl.EndDrawing()
}

// input collects one frame of input. While a prompt is being typed the
// keyboard goes to the prompt only.
func (a *App) input() app.Input {
	in := app.Input{
		Width:  int(rl.GetScreenWidth()),
		Height: int(rl.GetScreenHeight()),
	}

	if a.prompting {
		a.typePrompt(&in)
		return in
	}
	if rl.IsKeyPressed(rl.KeyEnter) {
		a.prompting = true
		a.promptBuf = a.promptBuf[:0]
		return in
	}

	for key, name := range keyNames {
		if rl.IsKeyPressed(key) {
			in.ParseKey(name)
		}
	}
	for key, name := range moveKeys {
		if rl.IsKeyDown(key) {
			in.ParseKey(name)
		}
	}

	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		d := rl.GetMouseDelta()
		in.LookDX = float64(d.X)
		in.LookDY = -float64(d.Y)
	}
	in.Scroll = float64(rl.GetMouseWheelMove())
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		p := rl.GetMousePosition()
		in.Click = &app.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return in
}

func (a *App) typePrompt(in *app.Input) {
	for ch := rl.GetCharPressed(); ch > 0; ch = rl.GetCharPressed() {
		a.promptBuf = append(a.promptBuf, ch)
	}
	switch {
	case rl.IsKeyPressed(rl.KeyBackspace) && len(a.promptBuf) > 0:
		a.promptBuf = a.promptBuf[:len(a.promptBuf)-1]
	case rl.IsKeyPressed(rl.KeyEnter):
		in.Prompt = string(a.promptBuf)
		a.prompting = false
	case rl.IsKeyPressed(rl.KeyEscape):
		a.prompting = false
	}
}

// overlay queues the prompt line and the audio meter below the session HUD.
func (a *App) overlay(w, h int) {
	r := a.renderer
	bottom := float64(h) - 30
	if a.prompting {
		r.RenderText("> "+string(a.promptBuf)+"_", 10, bottom, 1, netsim.Color{R: 1, G: 0.85, B: 0.3, A: 1})
		return
	}
	r.RenderText(fmt.Sprintf("%d FPS  enter: prompt", rl.GetFPS()), 10, bottom, 0.8, netsim.Color{R: 0.4, G: 0.4, B: 0.4, A: 1})

	if a.sound == nil || !a.sound.Active() {
		return
	}
	low, mid, high := a.sound.Levels()
	for i, v := range []float64{low, mid, high} {
		r.RenderRect(float64(w)-40+float64(i)*10, bottom+20-v*60, 8, v*60, netsim.Color{R: 0.7, G: 0.7, B: 0.7, A: 1})
	}
}
