package toolkit

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ToolEntry is the tool pair registered for one boot image type.
type ToolEntry struct {
	Type   string `json:"type"`
	Unpack string `json:"unpack"` // absolute path to the unpack tool
	Pack   string `json:"pack"`   // absolute path to the pack tool
}

// Format identifies the encoding of a toolkit document.
type Format string

// Supported toolkit document formats.
const (
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

// SupportedVersions is the semver constraint a toolkit document's version
// attribute must satisfy. Documents without a version are accepted.
const SupportedVersions = "^1"

// FormatFromPath picks the document format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported toolkit extension %q (want .xml, .yaml or .yml)", filepath.Ext(path))
	}
}

// document is the format-neutral shape of a toolkit document.
type document struct {
	Version string    `yaml:"version,omitempty" json:"version,omitempty" xml:"version,attr,omitempty"`
	Tools   []toolDoc `yaml:"tools" json:"tools" xml:"tool"`
}

// toolDoc is a single tool declaration as written in the document.
type toolDoc struct {
	Type   string `yaml:"type" json:"type" xml:"type,attr"`
	Unpack string `yaml:"unpack" json:"unpack" xml:"unpack"`
	Pack   string `yaml:"pack" json:"pack" xml:"pack"`
}
