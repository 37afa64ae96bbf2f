package loaders

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fzipp/bmfont"
)

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

type BitmapFontPage struct {
	ID   int8
	File string
}

// BitmapFont is the glyph atlas description of an AngelCode font.
type BitmapFont struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Pages      []BitmapFontPage
	// Glyphs and Kernings are sorted by codepoint.
	Glyphs   []FontGlyph
	Kernings []FontKerning
}

// Glyph finds the glyph of codepoint r.
func (f BitmapFont) Glyph(r rune) (FontGlyph, bool) {
	i := sort.Search(len(f.Glyphs), func(i int) bool { return f.Glyphs[i].Codepoint >= r })
	if i < len(f.Glyphs) && f.Glyphs[i].Codepoint == r {
		return f.Glyphs[i], true
	}
	return FontGlyph{}, false
}

// Kerning returns the advance adjustment between a and b, 0 if none.
func (f BitmapFont) Kerning(a, b rune) int16 {
	for _, k := range f.Kernings {
		if k.Codepoint0 == a && k.Codepoint1 == b {
			return k.Amount
		}
	}
	return 0
}

func (f BitmapFont) Clone() BitmapFont {
	out := f
	out.Pages = append([]BitmapFontPage(nil), f.Pages...)
	out.Glyphs = append([]FontGlyph(nil), f.Glyphs...)
	out.Kernings = append([]FontKerning(nil), f.Kernings...)
	return out
}

// BitmapFontLoader imports AngelCode .fnt descriptors together with their
// page sheets.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string) (BitmapFont, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".fnt" {
		return BitmapFont{}, fmt.Errorf("unable to load bitmap font '%s': unsupported extension '%s'", path, ext)
	}
	return fl.importFNTFile(path)
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (BitmapFont, error) {
	font, err := bmfont.Load(fntFileName)
	if err != nil {
		return BitmapFont{}, err
	}

	out := BitmapFont{
		Face:       font.Descriptor.Info.Face,
		Size:       uint32(font.Descriptor.Info.Size),
		LineHeight: int32(font.Descriptor.Common.LineHeight),
		Baseline:   int32(font.Descriptor.Common.Base),
		AtlasSizeX: int32(font.Descriptor.Common.ScaleW),
		AtlasSizeY: int32(font.Descriptor.Common.ScaleH),
		Pages:      make([]BitmapFontPage, 0, len(font.Descriptor.Pages)),
		Glyphs:     make([]FontGlyph, 0, len(font.Descriptor.Chars)),
		Kernings:   make([]FontKerning, 0, len(font.Descriptor.Kerning)),
	}

	for _, p := range font.Descriptor.Pages {
		out.Pages = append(out.Pages, BitmapFontPage{
			ID:   int8(p.ID),
			File: p.File,
		})
	}
	sort.Slice(out.Pages, func(i, j int) bool { return out.Pages[i].ID < out.Pages[j].ID })

	for _, g := range font.Descriptor.Chars {
		out.Glyphs = append(out.Glyphs, FontGlyph{
			Codepoint: int32(g.ID),
			Height:    uint16(g.Height),
			Width:     uint16(g.Width),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			XAdvance:  int16(g.XAdvance),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			PageID:    uint8(g.Page),
		})
	}
	sort.Slice(out.Glyphs, func(i, j int) bool { return out.Glyphs[i].Codepoint < out.Glyphs[j].Codepoint })

	for p, k := range font.Descriptor.Kerning {
		out.Kernings = append(out.Kernings, FontKerning{
			Amount:     int16(k.Amount),
			Codepoint0: int32(p.First),
			Codepoint1: int32(p.Second),
		})
	}
	sort.Slice(out.Kernings, func(i, j int) bool {
		if out.Kernings[i].Codepoint0 != out.Kernings[j].Codepoint0 {
			return out.Kernings[i].Codepoint0 < out.Kernings[j].Codepoint0
		}
		return out.Kernings[i].Codepoint1 < out.Kernings[j].Codepoint1
	})

	return out, nil
}
