package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/zurustar/gmcore/pkg/format"
)

// Headless is an in-memory RGBA framebuffer Surface: no window, no GL
// context. It backs --screenshot/--screenshot-at-frame captures and
// every test in this repo that exercises a draw path without an ebiten
// context available.
type Headless struct {
	img  *image.RGBA
	face font.Face

	// textures supplies the decoded texture page pixels DrawTexture
	// samples from; nil pages (not yet decoded, or out of range) are
	// skipped rather than panicking.
	textures []format.TexturePage
}

// NewHeadless returns a Headless surface of the given pixel size, ready
// to sample from textures (normally graph.Container.Texture).
func NewHeadless(width, height int, textures []format.TexturePage) *Headless {
	return &Headless{
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		face:     basicfont.Face7x13,
		textures: textures,
	}
}

// Image returns the current framebuffer contents. The returned image
// aliases internal state; callers that need to keep it across the next
// frame should copy it.
func (h *Headless) Image() *image.RGBA { return h.img }

// SavePNG encodes the current framebuffer to path, for --screenshot and
// --screenshot-at-frame.
func (h *Headless) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("renderer: creating screenshot %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, h.img); err != nil {
		return fmt.Errorf("renderer: encoding screenshot %s: %w", path, err)
	}
	return nil
}

func argbToColor(v uint32, alpha float64) color.RGBA {
	a := uint8(float64((v>>24)&0xFF) * alpha)
	return color.RGBA{
		R: uint8((v >> 16) & 0xFF),
		G: uint8((v >> 8) & 0xFF),
		B: uint8(v & 0xFF),
		A: a,
	}
}

func (h *Headless) Clear(c uint32) {
	rgba := argbToColor(c, 1)
	draw.Draw(h.img, h.img.Bounds(), &image.Uniform{C: rgba}, image.Point{}, draw.Src)
}

// DrawTexture samples the source region out of its texture page and
// blits it into place. Rotation and non-unit scale fall back to a
// per-destination-pixel inverse-map sample (§4.6 never promises
// sub-pixel filtering, so nearest-neighbor is exact enough); the
// unrotated, unit-scale common case takes a direct draw.Draw instead.
func (h *Headless) DrawTexture(pageIndex int32, src format.TextureRegion, originX, originY int32, x, y, xscale, yscale, angle float64, blend uint32, alpha float64) {
	if pageIndex < 0 || int(pageIndex) >= len(h.textures) {
		return
	}
	page := h.textures[pageIndex]
	if page.RGBA == nil || page.Width == 0 {
		return
	}
	srcImg := &image.RGBA{
		Pix:    page.RGBA,
		Stride: page.Width * 4,
		Rect:   image.Rect(0, 0, page.Width, page.Height),
	}
	srcRect := image.Rect(int(src.SrcX), int(src.SrcY), int(src.SrcX+src.SrcW), int(src.SrcY+src.SrcH))

	tint := argbToColor(blend, alpha)
	if angle == 0 && xscale == 1 && yscale == 1 && tint == (color.RGBA{255, 255, 255, 255}) {
		destX := int(x) - int(originX)
		destY := int(y) - int(originY)
		dest := image.Rect(destX, destY, destX+srcRect.Dx(), destY+srcRect.Dy())
		draw.Draw(h.img, dest, srcImg, srcRect.Min, draw.Over)
		return
	}

	sinA, cosA := math.Sincos(-angle * math.Pi / 180)
	w, hgt := srcRect.Dx(), srcRect.Dy()
	for dy := 0; dy < hgt; dy++ {
		for dx := 0; dx < w; dx++ {
			// offset from the sprite origin, in source pixels
			ox := float64(dx) - float64(originX)
			oy := float64(dy) - float64(originY)
			sx := ox * xscale
			sy := oy * yscale
			rx := sx*cosA - sy*sinA
			ry := sx*sinA + sy*cosA
			px := int(math.Round(x + rx))
			py := int(math.Round(y + ry))
			if !image.Pt(px, py).In(h.img.Bounds()) {
				continue
			}
			sr, sg, sb, sa := srcImg.At(srcRect.Min.X+dx, srcRect.Min.Y+dy).RGBA()
			if sa == 0 {
				continue
			}
			c := color.RGBA{
				R: uint8(uint32(sr>>8) * uint32(tint.R) / 255),
				G: uint8(uint32(sg>>8) * uint32(tint.G) / 255),
				B: uint8(uint32(sb>>8) * uint32(tint.B) / 255),
				A: uint8(uint32(sa>>8) * uint32(tint.A) / 255),
			}
			blendPixel(h.img, px, py, c)
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if c.A == 255 {
		img.SetRGBA(x, y, c)
		return
	}
	dst := img.RGBAAt(x, y)
	a := float64(c.A) / 255
	out := color.RGBA{
		R: uint8(float64(c.R)*a + float64(dst.R)*(1-a)),
		G: uint8(float64(c.G)*a + float64(dst.G)*(1-a)),
		B: uint8(float64(c.B)*a + float64(dst.B)*(1-a)),
		A: uint8(math.Min(255, float64(c.A)+float64(dst.A)*(1-a))),
	}
	img.SetRGBA(x, y, out)
}

func (h *Headless) DrawRectangle(x0, y0, x1, y1 float64, c uint32, alpha float64, outline bool) {
	rgba := argbToColor(c, alpha)
	rect := image.Rect(int(x0), int(y0), int(x1), int(y1))
	if !outline {
		draw.Draw(h.img, rect, &image.Uniform{C: rgba}, image.Point{}, draw.Over)
		return
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		blendPixel(h.img, x, rect.Min.Y, rgba)
		blendPixel(h.img, x, rect.Max.Y-1, rgba)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		blendPixel(h.img, rect.Min.X, y, rgba)
		blendPixel(h.img, rect.Max.X-1, y, rgba)
	}
}

func (h *Headless) DrawText(x, y float64, s string, c uint32, alpha float64) {
	rgba := argbToColor(c, alpha)
	d := &font.Drawer{
		Dst:  h.img,
		Src:  &image.Uniform{C: rgba},
		Face: h.face,
		Dot:  fixed.P(int(x), int(y)+h.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func (h *Headless) Present() {}
