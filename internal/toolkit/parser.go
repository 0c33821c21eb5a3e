package toolkit

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// Load reads the toolkit document at path and builds a Registry. Tool paths
// are resolved against toolsRoot; an empty toolsRoot means the directory that
// holds the document.
func Load(path, toolsRoot string) (*Registry, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: fmt.Errorf("reading file: %w", err)}
	}

	if toolsRoot == "" {
		toolsRoot = filepath.Dir(path)
	}
	if abs, err := filepath.Abs(toolsRoot); err == nil {
		toolsRoot = abs
	}

	reg, err := parse(data, format, toolsRoot, path)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Parse builds a Registry from an in-memory toolkit document.
func Parse(data []byte, format Format, toolsRoot string) (*Registry, error) {
	return parse(data, format, toolsRoot, "<"+string(format)+">")
}

func parse(data []byte, format Format, toolsRoot, source string) (*Registry, error) {
	var (
		doc    *document
		issues []Issue
		err    error
	)

	switch format {
	case FormatXML:
		doc, issues, err = decodeXML(data)
	case FormatYAML:
		doc, issues, err = decodeYAML(data)
	default:
		err = fmt.Errorf("unsupported toolkit format %q", format)
	}
	if err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}
	if len(issues) > 0 {
		return nil, &ConfigError{Source: source, Issues: issues}
	}

	if err := checkVersion(doc.Version); err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}

	return newRegistry(toolsRoot, doc.Tools), nil
}

// decodeXML reads the XML toolkit layout:
//
//	<toolkit>
//	  <tool type="COMMON">
//	    <unpack>common/unpack_bootimg.sh</unpack>
//	    <pack>common/pack_bootimg.sh</pack>
//	  </tool>
//	</toolkit>
//
// The root element name is not checked.
func decodeXML(data []byte) (*document, []Issue, error) {
	var doc document
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("parsing XML: %w", err)
	}
	for i := range doc.Tools {
		doc.Tools[i] = trimTool(doc.Tools[i])
	}
	doc.Version = strings.TrimSpace(doc.Version)

	issues, err := validate(doc)
	if err != nil {
		return nil, nil, err
	}
	return &doc, issues, nil
}

// decodeYAML validates the raw YAML first so unknown keys and wrong types are
// reported, then decodes it into the typed document.
func decodeYAML(data []byte) (*document, []Issue, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parsing YAML: %w", err)
	}

	issues, err := validate(raw)
	if err != nil {
		return nil, nil, err
	}
	if len(issues) > 0 {
		return nil, issues, nil
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing YAML: %w", err)
	}
	for i := range doc.Tools {
		doc.Tools[i] = trimTool(doc.Tools[i])
	}
	return &doc, nil, nil
}

func trimTool(t toolDoc) toolDoc {
	return toolDoc{
		Type:   strings.TrimSpace(t.Type),
		Unpack: strings.TrimSpace(t.Unpack),
		Pack:   strings.TrimSpace(t.Pack),
	}
}

// checkVersion accepts an empty version or one matching SupportedVersions.
func checkVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return fmt.Errorf("parsing toolkit version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("toolkit version %s is not supported (want %s)", version, SupportedVersions)
	}
	return nil
}
