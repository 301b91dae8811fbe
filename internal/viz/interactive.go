package viz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/llmvis/internal/app"
	"github.com/san-kum/llmvis/internal/config"
	"github.com/san-kum/llmvis/internal/logging"
	"github.com/san-kum/llmvis/internal/netsim"
)

const (
	stateMenu = iota
	stateLive
)

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuItem     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

// picker lists the model presets and starts a live session for the chosen
// one.
type picker struct {
	state   int
	cursor  int
	presets []string
	cfg     config.Config
	opts    Options
	logger  *slog.Logger
	live    Live
	err     error
	width   int
	height  int
}

func newPicker(cfg *config.Config, opts Options) picker {
	return picker{
		presets: config.ListPresets(),
		cfg:     *cfg,
		opts:    opts,
		logger:  opts.Logger,
	}
}

// PresetSummary describes a preset in one line.
func PresetSummary(d netsim.Description) string {
	counts := map[netsim.LayerType]int{}
	for _, l := range d.Layers {
		counts[l.Type]++
	}
	return fmt.Sprintf("%d layers, %d attention, width %d, vocab %d",
		len(d.Layers), counts[netsim.Attention], d.EmbeddingWidth, len(d.Vocabulary))
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateLive {
		next, cmd := m.live.Update(msg)
		m.live = next.(Live)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.presets)-1 {
				m.cursor++
			}
		case "enter":
			return m.start()
		}
	}
	return m, nil
}

func (m picker) start() (tea.Model, tea.Cmd) {
	cfg := m.cfg
	cfg.Preset = m.presets[m.cursor]
	cfg.ModelPath = ""

	s, err := app.NewSession(&cfg, app.WithLogger(m.logger))
	if err != nil {
		m.err = err
		return m, tea.Quit
	}
	m.live = NewLive(s, m.opts)
	if m.width > 0 {
		m.live.resize(m.width, m.height)
	}
	m.state = stateLive
	return m, m.live.Init()
}

func (m picker) View() string {
	if m.state == stateLive {
		return m.live.View()
	}

	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("LLMVIS") + "\n    " + menuSub.Render("transformer visualization") +
		"\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		d, _ := config.GetPreset(name)
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"),
				menuSelected.Render(fmt.Sprintf("%-12s", name)), menuDesc.Render(PresetSummary(d))))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuItem.Render(fmt.Sprintf("  %-12s", name)),
				menuItem.Render(PresetSummary(d))))
		}
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuSub.Render(" navigate  ") +
		menuKey.Render("enter") + menuSub.Render(" select  ") +
		menuKey.Render("esc") + menuSub.Render(" quit") + "\n")
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(CurrentTheme.Recording).Render(m.err.Error()) + "\n")
	}
	return b.String()
}

// RunInteractive shows the preset menu and then the live view.
func RunInteractive(ctx context.Context, cfg *config.Config, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	p := tea.NewProgram(newPicker(cfg, opts), tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	if pk, ok := final.(picker); ok && pk.err != nil {
		return pk.err
	}
	return nil
}
