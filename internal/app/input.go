package app

import (
	"github.com/san-kum/llmvis/internal/camera"
	"github.com/san-kum/llmvis/internal/experiment"
)

type Action int

const (
	ActionNone Action = iota
	ActionTogglePause
	ActionStepForward
	ActionStepBackward
	ActionSpeedUp
	ActionSpeedDown
	ActionToggleHelp
	ActionToggleFlow
	ActionClearHighlights
	ActionQuit
)

const (
	speedUpFactor   = 1.1
	speedDownFactor = 0.9
)

// Point is a screen position in pixels (or terminal sub-cells).
type Point struct {
	X, Y float64
}

// Input is everything a frontend collected during one frame. It is passed
// into the session explicitly; nothing is read from globals.
type Input struct {
	Actions     []Action
	Move        []camera.Direction
	LookDX      float64 // positive turns right
	LookDY      float64 // positive looks up
	Scroll      float64
	Click       *Point
	Width       int
	Height      int
	Prompt      string
	Experiments []experiment.ID
}

var keyActions = map[string]Action{
	"space":  ActionTogglePause,
	" ":      ActionTogglePause,
	"right":  ActionStepForward,
	"left":   ActionStepBackward,
	"=":      ActionSpeedUp,
	"+":      ActionSpeedUp,
	"-":      ActionSpeedDown,
	"h":      ActionToggleHelp,
	"?":      ActionToggleHelp,
	"f":      ActionToggleFlow,
	"c":      ActionClearHighlights,
	"esc":    ActionQuit,
	"ctrl+c": ActionQuit,
}

var keyDirections = map[string]camera.Direction{
	"w": camera.Forward,
	"s": camera.Backward,
	"a": camera.Left,
	"d": camera.Right,
	"q": camera.Up,
	"e": camera.Down,
}

var keyExperiments = map[string]experiment.ID{
	"1": experiment.ChangeAttentionWeights,
	"2": experiment.ModifyLayerSizes,
	"3": experiment.AlterActivationFunctions,
	"4": experiment.InjectKnowledge,
	"5": experiment.TestRobustness,
}

// ActionForKey maps a lower-case key name to a playback action.
func ActionForKey(key string) Action {
	return keyActions[key]
}

func DirectionForKey(key string) (camera.Direction, bool) {
	d, ok := keyDirections[key]
	return d, ok
}

func ExperimentForKey(key string) (experiment.ID, bool) {
	id, ok := keyExperiments[key]
	return id, ok
}

// ParseKey adds whatever key means to in.
func (in *Input) ParseKey(key string) {
	if a := ActionForKey(key); a != ActionNone {
		in.Actions = append(in.Actions, a)
		return
	}
	if d, ok := DirectionForKey(key); ok {
		in.Move = append(in.Move, d)
		return
	}
	if id, ok := ExperimentForKey(key); ok {
		in.Experiments = append(in.Experiments, id)
	}
}

// HelpLines lists the key bindings shown in the help overlay.
var HelpLines = []string{
	"W/S/A/D/Q/E  move camera",
	"mouse        look around, click to select",
	"scroll       zoom",
	"space        pause / resume",
	"left/right   step backward / forward",
	"= / -        speed x1.1 / x0.9",
	"1-5          run experiment",
	"enter        type a prompt",
	"f            toggle data flow",
	"c            clear highlights",
	"h            toggle help",
	"esc          quit",
}
