package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	gifCharW = 8
	gifCharH = 16
	// gifDelay is in hundredths of a second.
	gifDelay = 2
)

// Recorder accumulates canvas frames for a GIF.
type Recorder struct {
	frames  []*image.Paletted
	palette color.Palette
}

func NewRecorder(t Theme) *Recorder {
	bg := rgba(t.Background)
	fg := rgba(t.Primary)
	return &Recorder{palette: color.Palette{bg, fg}}
}

func rgba(c lipgloss.Color) color.RGBA {
	r, g, b := parseHex(string(c))
	return color.RGBA{uint8(r), uint8(g), uint8(b), 255}
}

func (r *Recorder) Len() int { return len(r.frames) }

// Capture rasterizes the canvas, one block of pixels per braille dot.
func (r *Recorder) Capture(c *Canvas) {
	imgW, imgH := c.Width*gifCharW, c.Height*gifCharH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), r.palette)
	dotW, dotH := gifCharW/2, gifCharH/4

	for y := 0; y < c.SubHeight(); y++ {
		for x := 0; x < c.SubWidth(); x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Encode writes the captured frames as a looping GIF.
func (r *Recorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, gifDelay)
	}
	return gif.EncodeAll(w, &anim)
}

// Save writes the recording under dir/recordings and returns its path.
func (r *Recorder) Save(dir string) (string, error) {
	out := filepath.Join(dir, "recordings")
	if err := os.MkdirAll(out, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(out, fmt.Sprintf("llmvis_%d.gif", time.Now().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := r.Encode(f); err != nil {
		return "", err
	}
	return path, nil
}
