// Package render draws debug frames of a match snapshot: collision boxes,
// health and meter bars, and state labels. It is a development aid and
// never feeds back into the simulation.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"fight-core/internal/match"
)

// Palette
var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorGrid       = color.RGBA{30, 30, 45, 255}
	colorGround     = color.RGBA{70, 70, 90, 255}
	colorHurtbox    = color.RGBA{83, 255, 69, 255}
	colorHurtboxOff = color.RGBA{83, 255, 69, 60}
	colorHitbox     = color.RGBA{255, 62, 62, 255}
	colorBarBack    = color.RGBA{51, 51, 51, 255}
	colorMeter      = color.RGBA{80, 160, 255, 255}
	colorText       = color.RGBA{230, 230, 240, 255}
	colorFrozen     = color.RGBA{255, 255, 255, 40}
)

var fighterColors = [2]color.RGBA{
	{255, 120, 0, 255},
	{170, 90, 255, 255},
}

const (
	barWidth  = 360.0
	barHeight = 14.0
	barMargin = 24.0
)

var (
	faceOnce  sync.Once
	faceSmall font.Face
	faceLarge font.Face
)

// loadFaces parses the embedded Go font once.
func loadFaces() {
	faceOnce.Do(func() {
		parsed, err := opentype.Parse(goregular.TTF)
		if err != nil {
			log.Printf("⚠️ Failed to parse font: %v", err)
			return
		}
		faceSmall, err = opentype.NewFace(parsed, &opentype.FaceOptions{Size: 14, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			log.Printf("⚠️ Failed to create small font face: %v", err)
			return
		}
		faceLarge, err = opentype.NewFace(parsed, &opentype.FaceOptions{Size: 32, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			log.Printf("⚠️ Failed to create large font face: %v", err)
		}
	})
}

// Options control a rendered frame.
type Options struct {
	Width, Height int
	WorldWidth    float64 // World units mapped onto Width
	GroundY       float64 // World y of the floor line
	Labels        bool
}

// DefaultOptions returns a 960x540 frame of a 1200-unit arena.
func DefaultOptions() Options {
	return Options{Width: 960, Height: 540, WorldWidth: 1200, GroundY: 600, Labels: true}
}

// Frame draws one snapshot.
func Frame(snap match.MatchSnapshot, opts Options) image.Image {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.WorldWidth <= 0 {
		opts.WorldWidth = float64(opts.Width)
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	w, h := float64(opts.Width), float64(opts.Height)

	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
	drawGrid(dc, w, h)

	// World to screen: uniform scale on x, floor near the bottom.
	scale := w / opts.WorldWidth
	floor := h - 40
	dc.Push()
	dc.Translate(0, floor-opts.GroundY*scale)
	dc.Scale(scale, scale)

	dc.SetColor(colorGround)
	dc.SetLineWidth(2 / scale)
	dc.DrawLine(0, opts.GroundY, opts.WorldWidth, opts.GroundY)
	dc.Stroke()

	for i := range snap.Fighters {
		drawFighter(dc, &snap.Fighters[i], fighterColors[i], scale)
	}
	dc.Pop()

	drawHUD(dc, &snap, w, opts.Labels)

	if snap.Frozen {
		dc.SetColor(colorFrozen)
		dc.DrawRectangle(0, 0, w, h)
		dc.Fill()
	}
	return dc.Image()
}

// PNG encodes Frame(snap, opts).
func PNG(snap match.MatchSnapshot, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Frame(snap, opts)); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawGrid(dc *gg.Context, w, h float64) {
	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	for x := 0.0; x < w; x += 80 {
		dc.DrawLine(x, 0, x, h)
		dc.Stroke()
	}
	for y := 0.0; y < h; y += 80 {
		dc.DrawLine(0, y, w, y)
		dc.Stroke()
	}
}

func drawFighter(dc *gg.Context, f *match.FighterSnapshot, c color.RGBA, scale float64) {
	line := 2 / scale

	// Body marker
	dc.SetColor(c)
	dc.DrawCircle(f.X, f.Y, 6/scale)
	dc.Fill()
	dc.SetLineWidth(line)
	dc.DrawLine(f.X, f.Y, f.X+float64(f.Facing)*20, f.Y)
	dc.Stroke()

	for _, hb := range f.Hurtboxes {
		if hb.W == 0 && hb.H == 0 {
			continue
		}
		if hb.Enabled && !f.Invulnerable {
			dc.SetColor(colorHurtbox)
		} else {
			dc.SetColor(colorHurtboxOff)
		}
		dc.DrawRectangle(hb.X, hb.Y, hb.W, hb.H)
		dc.Stroke()
	}

	if f.Hitbox.Enabled {
		dc.SetColor(colorHitbox)
		dc.DrawRectangle(f.Hitbox.X, f.Hitbox.Y, f.Hitbox.W, f.Hitbox.H)
		dc.Fill()
	}
}

func drawHUD(dc *gg.Context, snap *match.MatchSnapshot, w float64, labels bool) {
	if labels {
		loadFaces()
	}
	for i := range snap.Fighters {
		f := &snap.Fighters[i]
		x := barMargin
		if i == 1 {
			x = w - barMargin - barWidth
		}

		drawBar(dc, x, barMargin, ratio(f.HP, f.MaxHP), healthColor(f.HP, f.MaxHP), i == 1)
		drawBar(dc, x, barMargin+barHeight+4, ratio(f.Meter, f.MaxMeter), colorMeter, i == 1)

		if labels && faceSmall != nil {
			dc.SetFontFace(faceSmall)
			dc.SetColor(colorText)
			label := fmt.Sprintf("%s  %s %s  x%d", f.Name, f.State, f.Phase, f.Combo)
			if i == 0 {
				dc.DrawStringAnchored(label, x, barMargin+2*barHeight+20, 0, 0.5)
			} else {
				dc.DrawStringAnchored(label, x+barWidth, barMargin+2*barHeight+20, 1, 0.5)
			}
		}
	}

	if !labels || faceLarge == nil {
		return
	}
	dc.SetFontFace(faceLarge)
	dc.SetColor(colorText)
	center := fmt.Sprintf("R%d  %02d", snap.Round, int(snap.RoundTime+0.999))
	if snap.Outcome != "" {
		center = snap.Outcome
	}
	dc.DrawStringAnchored(center, w/2, barMargin+barHeight, 0.5, 0.5)
}

// drawBar fills from the outer edge toward the centre of the screen.
func drawBar(dc *gg.Context, x, y, fill float64, c color.Color, rightSide bool) {
	dc.SetColor(colorBarBack)
	dc.DrawRectangle(x, y, barWidth, barHeight)
	dc.Fill()

	fw := barWidth * fill
	if rightSide {
		x += barWidth - fw
	}
	dc.SetColor(c)
	dc.DrawRectangle(x, y, fw, barHeight)
	dc.Fill()
}

func healthColor(hp, total int) color.RGBA {
	switch r := ratio(hp, total); {
	case r > 0.5:
		return color.RGBA{83, 255, 69, 255}
	case r > 0.25:
		return color.RGBA{255, 149, 0, 255}
	default:
		return color.RGBA{255, 62, 62, 255}
	}
}

func ratio(v, total int) float64 {
	if total <= 0 {
		return 0
	}
	r := float64(v) / float64(total)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
