// Package globe renders the spinning ASCII globe shown by "git global".
package globe

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Title is printed under the globe once it settles.
const Title = "GitGlobal Voyager"

const (
	landChars  = " .:-=+*#%@"
	oceanChars = "  ..--==++**##@@"

	minCols = 30
	minRows = 20
)

type rgb struct{ r, g, b float64 }

var (
	landRGB  = rgb{90, 220, 160}
	oceanRGB = rgb{60, 185, 220}
	textRGB  = rgb{160, 215, 255}
	lightDir = normalize(vec{0.6, 0.8, 1.0})
)

// Options control playback.
type Options struct {
	Duration time.Duration
	FPS      int
	// Color enables 24-bit colouring of the frames.
	Color bool
}

// DefaultOptions plays about 1.2 turns in four seconds.
func DefaultOptions() Options {
	return Options{Duration: 4 * time.Second, FPS: 18, Color: true}
}

// Play animates the globe on out, which must be a terminal of at least
// 30x20 cells. It reports whether anything was shown. Cancelling ctx stops
// the animation early and still counts as shown.
func Play(ctx context.Context, out *os.File, opts Options) bool {
	fd := int(out.Fd())
	if !term.IsTerminal(fd) {
		return false
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil || cols < minCols || rows < minRows {
		return false
	}
	if opts.FPS <= 0 {
		opts.FPS = 18
	}

	r := lipgloss.NewRenderer(out)
	frames := max(1, int(opts.Duration.Seconds()*float64(opts.FPS)))
	span := math.Pi * 2.4

	fmt.Fprint(out, "\033[?25l")
	defer fmt.Fprint(out, "\033[?25h")

	ticker := time.NewTicker(time.Second / time.Duration(opts.FPS))
	defer ticker.Stop()
	start := time.Now()

	for i := 0; i < frames; i++ {
		progress := 1.0
		if opts.Duration > 0 {
			progress = math.Min(1, float64(time.Since(start))/float64(opts.Duration))
		}
		alpha := 0.0
		if progress > 0.65 {
			alpha = (progress - 0.65) / 0.35
		}
		draw(out, r, fd, easeInOutCubic(progress)*span, alpha, opts.Color)

		select {
		case <-ctx.Done():
			clearScreen(out)
			return true
		case <-ticker.C:
		}
	}

	draw(out, r, fd, span, 1, opts.Color)
	return true
}

func draw(out io.Writer, r *lipgloss.Renderer, fd int, angle, alpha float64, color bool) {
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		cols, rows = minCols, minRows
	}
	width := min(30, max(20, cols-10))
	height := min(30, max(20, rows-8))

	frame := Render(r, angle, width, height, color, alpha)
	lines := strings.Split(frame, "\n")
	top := max(0, (rows-len(lines))/2-1)
	left := strings.Repeat(" ", max(0, (cols-width)/2))

	var b strings.Builder
	b.WriteString("\033[2J\033[H")
	b.WriteString(strings.Repeat("\n", top))
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(left)
		b.WriteString(line)
	}
	io.WriteString(out, b.String())
}

func clearScreen(out io.Writer) {
	io.WriteString(out, "\033[2J\033[H")
}

// Render draws one frame of a width x height globe rotated by angle
// radians. A title line follows when titleAlpha is positive. r may be nil
// when color is false.
func Render(r *lipgloss.Renderer, angle float64, width, height int, color bool, titleAlpha float64) string {
	paint := func(s string, c rgb) string {
		if !color || r == nil {
			return s
		}
		return r.NewStyle().Foreground(lipgloss.Color(c.hex())).Render(s)
	}

	lines := make([]string, 0, height+1)
	for row := 0; row < height; row++ {
		y := (float64(row) + 0.5 - float64(height)/2) / (float64(height) / 2)
		var line strings.Builder
		for col := 0; col < width; col++ {
			x := (float64(col) + 0.5 - float64(width)/2) / (float64(width) / 2)
			if x*x+y*y > 1 {
				line.WriteByte(' ')
				continue
			}
			cam := vec{x, y, math.Sqrt(math.Max(0, 1-x*x-y*y))}
			shade := math.Pow(math.Max(0, dot(normalize(cam), lightDir)), 0.65)
			if isLand(cam.rotateY(-angle)) {
				line.WriteString(paint(charFor(shade, landChars), landRGB.scale(0.45+0.55*(0.5+shade/2))))
			} else {
				line.WriteString(paint(charFor(shade, oceanChars), oceanRGB.scale(0.35+0.65*(0.4+shade/2))))
			}
		}
		lines = append(lines, line.String())
	}

	if titleAlpha > 0 {
		pad := strings.Repeat(" ", max(0, (width-len(Title))/2))
		lines = append(lines, pad+paint(Title, textRGB.scale(math.Min(1, titleAlpha))))
	}
	return strings.Join(lines, "\n")
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	k := 2*t - 2
	return 0.5*k*k*k + 1
}

func charFor(v float64, chars string) string {
	v = math.Max(0, math.Min(1, v))
	i := int(v * float64(len(chars)-1))
	return chars[i : i+1]
}

func (c rgb) scale(f float64) rgb {
	return rgb{math.Min(255, c.r*f), math.Min(255, c.g*f), math.Min(255, c.b*f)}
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", int(c.r), int(c.g), int(c.b))
}

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

type vec struct{ x, y, z float64 }

func normalize(v vec) vec {
	m := math.Sqrt(dot(v, v))
	if m == 0 {
		return vec{}
	}
	return vec{v.x / m, v.y / m, v.z / m}
}

func dot(a, b vec) float64 {
	return a.x*b.x + a.y*b.y + a.z*b.z
}

func (v vec) rotateY(angle float64) vec {
	s, c := math.Sin(angle), math.Cos(angle)
	return vec{v.x*c + v.z*s, v.y, -v.x*s + v.z*c}
}

// isLand samples a rough continent map at the point's latitude and
// longitude.
func isLand(p vec) bool {
	lon := math.Atan2(p.x, p.z) * 180 / math.Pi
	lat := math.Asin(math.Max(-1, math.Min(1, p.y))) * 180 / math.Pi

	band := func(latMin, latMax, lonMin, lonMax float64) bool {
		return latMin <= lat && lat <= latMax && lonMin <= lon && lon <= lonMax
	}

	switch {
	case band(12, 75, -170, -45) &&
		((lat > 55 && lon < -110) || (lat < 40 && lon < -95) || (lon > -110 && lat < 60) || (lat > 55 && lon >= -110)):
		return true // North America
	case band(-56, 15, -82, -30) && (lon > -70 || lat > -15):
		return true // South America
	case band(25, 80, -15, 180):
		return true // Eurasia
	case band(-35, 37, -20, 55):
		return true // Africa
	case band(-45, -5, 110, 155):
		return true // Australia
	case band(5, 30, 65, 120):
		return true // India and South-East Asia
	case band(58, 84, -72, -10):
		return true // Greenland
	}
	return lat < -64
}
