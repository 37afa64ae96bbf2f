package loaders

import (
	"path/filepath"
	"strings"
)

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown extension. */
	ResourceTypeUnknown ResourceType = iota
	/** @brief Text resource type. */
	ResourceTypeText
	/** @brief Structured document (JSON or TOML). */
	ResourceTypeDocument
	/** @brief Binary resource type. */
	ResourceTypeBinary
	/** @brief Compiled SPIR-V shader module. */
	ResourceTypeShader
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Material resource type. */
	ResourceTypeMaterial
	/** @brief Bitmap font resource type. */
	ResourceTypeBitmapFont
	/** @brief System font resource type. */
	ResourceTypeSystemFont
)

var resourceTypeNames = map[ResourceType]string{
	ResourceTypeUnknown:    "unknown",
	ResourceTypeText:       "text",
	ResourceTypeDocument:   "document",
	ResourceTypeBinary:     "binary",
	ResourceTypeShader:     "shader",
	ResourceTypeImage:      "image",
	ResourceTypeMaterial:   "material",
	ResourceTypeBitmapFont: "bitmap_font",
	ResourceTypeSystemFont: "system_font",
}

func (t ResourceType) String() string {
	if s, ok := resourceTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseResourceType is the inverse of ResourceType.String.
func ParseResourceType(s string) (ResourceType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range resourceTypeNames {
		if name == s {
			return t, true
		}
	}
	return ResourceTypeUnknown, false
}

var extensions = map[string]ResourceType{
	".txt":  ResourceTypeText,
	".json": ResourceTypeDocument,
	".toml": ResourceTypeDocument,
	".bin":  ResourceTypeBinary,
	".dat":  ResourceTypeBinary,
	".spv":  ResourceTypeShader,
	".png":  ResourceTypeImage,
	".jpg":  ResourceTypeImage,
	".jpeg": ResourceTypeImage,
	".gif":  ResourceTypeImage,
	".bmp":  ResourceTypeImage,
	".tif":  ResourceTypeImage,
	".tiff": ResourceTypeImage,
	".webp": ResourceTypeImage,
	".amt":  ResourceTypeMaterial,
	".fnt":  ResourceTypeBitmapFont,
	".fsc":  ResourceTypeSystemFont,
}

// DetermineType guesses the resource type from the file extension.
func DetermineType(path string) ResourceType {
	if t, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return ResourceTypeUnknown
}
