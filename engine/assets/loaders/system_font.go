package loaders

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// SystemFont is a TrueType/OpenType collection and the faces a
// font config selects from it.
type SystemFont struct {
	// FontFile is the resolved path of the font binary.
	FontFile   string
	Faces      []string
	Collection *opentype.Collection
	BinarySize int

	data []byte
}

// Clone parses a private copy of the font binary, so the copy shares
// no buffer with sf.
func (sf SystemFont) Clone() SystemFont {
	out := sf
	out.Faces = append([]string(nil), sf.Faces...)
	if sf.data != nil {
		out.data = append([]byte(nil), sf.data...)
		if c, err := opentype.ParseCollection(out.data); err == nil {
			out.Collection = c
		}
	}
	return out
}

// Face returns the font of the collection whose family or full name is
// name. The lookup is case insensitive.
func (sf SystemFont) Face(name string) (*opentype.Font, error) {
	if sf.Collection == nil {
		return nil, fmt.Errorf("system font has no collection")
	}
	var buf sfnt.Buffer
	for i := 0; i < sf.Collection.NumFonts(); i++ {
		f, err := sf.Collection.Font(i)
		if err != nil {
			return nil, err
		}
		for _, id := range []sfnt.NameID{sfnt.NameIDFamily, sfnt.NameIDFull} {
			n, err := f.Name(&buf, id)
			if err == nil && strings.EqualFold(n, name) {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("face '%s' not found in '%s'", name, sf.FontFile)
}

// SystemFontLoader reads font config files:
//
//	# comment
//	file=NotoSans.ttc
//	face=Noto Sans
//	face=Noto Sans Bold
//
// file is relative to the config file.
type SystemFontLoader struct{}

func (fl *SystemFontLoader) Load(path string) (SystemFont, error) {
	file, err := os.Open(path)
	if err != nil {
		return SystemFont{}, err
	}
	defer file.Close()

	out := SystemFont{}
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "file=") {
			filename := strings.TrimSpace(strings.TrimPrefix(line, "file="))
			if !filepath.IsAbs(filename) {
				filename = filepath.Join(filepath.Dir(path), filename)
			}
			fontBytes, err := os.ReadFile(filename)
			if err != nil {
				return SystemFont{}, err
			}
			c, err := opentype.ParseCollection(fontBytes)
			if err != nil {
				return SystemFont{}, fmt.Errorf("parse font %s: %w", filename, err)
			}
			out.FontFile = filename
			out.Collection = c
			out.BinarySize = len(fontBytes)
			out.data = fontBytes
		} else if strings.HasPrefix(line, "face=") {
			out.Faces = append(out.Faces, strings.TrimSpace(strings.TrimPrefix(line, "face=")))
		}
	}

	if err := scanner.Err(); err != nil {
		return SystemFont{}, err
	}
	if out.Collection == nil {
		return SystemFont{}, fmt.Errorf("%s: no font file given", path)
	}
	return out, nil
}
