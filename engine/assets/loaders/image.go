package loaders

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a decoded picture as tightly packed 8 bit RGBA rows.
type Image struct {
	// Format is the name the decoder registered, e.g. "png".
	Format       string
	Width        int
	Height       int
	ChannelCount uint8
	Pixels       []uint8
}

// RGBA wraps the pixels without copying them.
func (img Image) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pixels,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

func (img Image) Clone() Image {
	out := img
	out.Pixels = append([]uint8(nil), img.Pixels...)
	return out
}

// Scaled returns a copy resampled to width x height.
func (img Image) Scaled(width, height int) Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img.RGBA(), img.RGBA().Bounds(), draw.Src, nil)
	return Image{
		Format:       img.Format,
		Width:        width,
		Height:       height,
		ChannelCount: 4,
		Pixels:       dst.Pix,
	}
}

// ImageLoader decodes png, jpeg, gif, bmp, tiff and webp files.
type ImageLoader struct {
	// FlipY stores rows bottom to top, as GPUs expect texture data.
	FlipY bool
}

func (il *ImageLoader) Load(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, err
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return Image{}, fmt.Errorf("decode image %s: %w", path, err)
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	if il.FlipY {
		flipRows(dst.Pix, dst.Stride, b.Dy())
	}

	return Image{
		Format:       format,
		Width:        b.Dx(),
		Height:       b.Dy(),
		ChannelCount: 4,
		Pixels:       dst.Pix,
	}, nil
}

func flipRows(pix []uint8, stride, height int) {
	tmp := make([]uint8, stride)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
