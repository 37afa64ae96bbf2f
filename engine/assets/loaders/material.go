package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Colour is a linear RGBA colour, every channel in [0, 1].
type Colour struct {
	R float32 `validate:"gte=0,lte=1"`
	G float32 `validate:"gte=0,lte=1"`
	B float32 `validate:"gte=0,lte=1"`
	A float32 `validate:"gte=0,lte=1"`
}

/**
 * @brief Material configuration typically loaded from
 * a .amt file.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string `validate:"required"`
	/** @brief The shader the material is drawn with. */
	ShaderName string `validate:"required"`
	/** @brief Indicates if the material should be automatically released when no references to it remain. */
	AutoRelease bool
	/** @brief The diffuse colour of the material. */
	DiffuseColour Colour
	/** @brief The shininess of the material. */
	Shininess float32 `validate:"gte=0"`
	/** @brief The diffuse map name. */
	DiffuseMapName string
	/** @brief The specular map name. */
	SpecularMapName string
	/** @brief The normal map name. */
	NormalMapName string
}

// MaterialLoader parses the key=value .amt material format.
type MaterialLoader struct {
	// Logger receives warnings about unknown keys. Defaults to the
	// process logger.
	Logger core.Logger
}

func (ml *MaterialLoader) Load(path string) (MaterialConfig, error) {
	logger := ml.Logger
	if logger == nil {
		logger = core.DefaultLogger()
	}
	cfg, err := parseAMTFile(path, logger)
	if err != nil {
		return MaterialConfig{}, err
	}
	return *cfg, nil
}

func parseAMTFile(filename string, logger core.Logger) (*MaterialConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	materialConfig := &MaterialConfig{}
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		// Split key-value pairs by the first "=" sign
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			logger.Warnf("%s:%d: skipping invalid line: %s", filename, lineNo, line)
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "name":
			materialConfig.Name = value
		case "shader":
			materialConfig.ShaderName = value
		case "diffuse_colour":
			c, err := parseColour(value)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
			}
			materialConfig.DiffuseColour = c
		case "shininess":
			shininess, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid shininess value: %s", filename, lineNo, value)
			}
			materialConfig.Shininess = float32(shininess)
		case "diffuse_map_name":
			materialConfig.DiffuseMapName = value
		case "specular_map_name":
			materialConfig.SpecularMapName = value
		case "normal_map_name":
			materialConfig.NormalMapName = value
		case "autorelease":
			autoRelease, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid autorelease value: %s", filename, lineNo, value)
			}
			materialConfig.AutoRelease = autoRelease
		default:
			logger.Warnf("unknown key '%s' found in '%s', skipping", key, filename)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := structValidator.Struct(materialConfig); err != nil {
		return nil, fmt.Errorf("invalid material %s: %w", filename, err)
	}
	return materialConfig, nil
}

func parseColour(value string) (Colour, error) {
	fields := strings.Fields(value)
	if len(fields) != 4 {
		return Colour{}, fmt.Errorf("invalid diffuse_colour, expected 4 values: %s", value)
	}
	var ch [4]float32
	for i, v := range fields {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return Colour{}, fmt.Errorf("invalid diffuse_colour value: %s", v)
		}
		ch[i] = float32(f)
	}
	return Colour{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}
