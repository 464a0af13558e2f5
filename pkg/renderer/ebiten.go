package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/gmcore/pkg/format"
)

var defaultFace = text.NewGoXFace(basicfont.Face7x13)

// Ebiten is the windowed Surface: every DrawTexture/DrawRectangle/
// DrawText call lands on the *ebiten.Image handed to it fresh each
// frame by the ebiten.Game.Draw callback (package runtime owns that
// callback; this type only needs the destination image for the
// duration of one frame).
type Ebiten struct {
	dst *ebiten.Image

	// pages lazily converts each decoded texture page to an *ebiten.Image
	// the first time it is sampled; GameMaker re-draws the same handful
	// of pages every frame, so this cache avoids re-uploading pixels.
	pages    []format.TexturePage
	uploaded []*ebiten.Image
}

// NewEbiten returns a windowed Surface sourcing texture pages from
// textures (normally graph.Container.Texture).
func NewEbiten(textures []format.TexturePage) *Ebiten {
	return &Ebiten{
		pages:    textures,
		uploaded: make([]*ebiten.Image, len(textures)),
	}
}

// SetTarget points subsequent draw calls at dst, the image ebiten.Game's
// Draw callback receives for this frame. Must be called before any
// other method each frame.
func (e *Ebiten) SetTarget(dst *ebiten.Image) { e.dst = dst }

func (e *Ebiten) page(index int32) *ebiten.Image {
	if index < 0 || int(index) >= len(e.pages) {
		return nil
	}
	if e.uploaded[index] != nil {
		return e.uploaded[index]
	}
	p := e.pages[index]
	if p.RGBA == nil || p.Width == 0 {
		return nil
	}
	img := ebiten.NewImageFromImage(&image.RGBA{
		Pix:    p.RGBA,
		Stride: p.Width * 4,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	})
	e.uploaded[index] = img
	return img
}

func (e *Ebiten) Clear(c uint32) {
	e.dst.Fill(argbToColor(c, 1))
}

// DrawTexture draws the src region of texture page pageIndex, exactly
// the way the source tool this engine was patterned on composes a cast
// sprite draw: GeoM translate/scale/rotate, then ColorScale for tint
// and alpha, then DrawImage.
func (e *Ebiten) DrawTexture(pageIndex int32, src format.TextureRegion, originX, originY int32, x, y, xscale, yscale, angle float64, blend uint32, alpha float64) {
	img := e.page(pageIndex)
	if img == nil {
		return
	}
	rect := image.Rect(int(src.SrcX), int(src.SrcY), int(src.SrcX+src.SrcW), int(src.SrcY+src.SrcH))
	sub := img.SubImage(rect).(*ebiten.Image)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-float64(originX), -float64(originY))
	op.GeoM.Scale(xscale, yscale)
	op.GeoM.Rotate(-angle * math.Pi / 180)
	op.GeoM.Translate(x, y)

	op.ColorScale.ScaleWithColor(argbToColor(blend, alpha))
	e.dst.DrawImage(sub, op)
}

func (e *Ebiten) DrawRectangle(x0, y0, x1, y1 float64, c uint32, alpha float64, outline bool) {
	fillColor := argbToColor(c, alpha)
	w, h := x1-x0, y1-y0
	if !outline {
		e.fillRect(x0, y0, w, h, fillColor)
		return
	}
	const thickness = 1
	e.fillRect(x0, y0, w, thickness, fillColor)
	e.fillRect(x0, y1-thickness, w, thickness, fillColor)
	e.fillRect(x0, y0, thickness, h, fillColor)
	e.fillRect(x1-thickness, y0, thickness, h, fillColor)
}

func (e *Ebiten) fillRect(x, y, w, h float64, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	img := ebiten.NewImage(int(math.Ceil(w)), int(math.Ceil(h)))
	img.Fill(c)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x, y)
	e.dst.DrawImage(img, op)
}

func (e *Ebiten) DrawText(x, y float64, s string, c uint32, alpha float64) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(argbToColor(c, alpha))
	text.Draw(e.dst, s, defaultFace, op)
}

func (e *Ebiten) Present() {}
