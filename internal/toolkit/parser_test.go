package toolkit

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func absTestdata(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(testdataDir)
	if err != nil {
		t.Fatal(err)
	}
	return abs
}

func TestLoad_ResolvesAgainstToolsRoot(t *testing.T) {
	for _, file := range []string{"toolkit.xml", "toolkit.yaml"} {
		t.Run(file, func(t *testing.T) {
			reg, err := Load(testPath(file), "")
			if err != nil {
				t.Fatalf("Load(%s) error: %v", file, err)
			}

			root := absTestdata(t)
			if reg.ToolsRoot() != root {
				t.Errorf("ToolsRoot() = %q, want %q", reg.ToolsRoot(), root)
			}

			tests := []struct {
				typ    string
				unpack string
				pack   string
			}{
				{"COMMON", "common/unpack_bootimg", "common/pack_bootimg"},
				{"MTK", "mtk/unpack-MTK.pl", "mtk/repack-MTK.pl"},
				{"MTK-V2", "mtk-v2/unpack-MTK.pl", "mtk-v2/repack-MTK.pl"},
				{"SONY", "sony/unpack_bootimg", "sony/pack_bootimg"},
			}
			for _, tt := range tests {
				entry, err := reg.Get(tt.typ)
				if err != nil {
					t.Fatalf("Get(%q) error: %v", tt.typ, err)
				}
				if want := filepath.Join(root, filepath.FromSlash(tt.unpack)); entry.Unpack != want {
					t.Errorf("Get(%q).Unpack = %q, want %q", tt.typ, entry.Unpack, want)
				}
				if want := filepath.Join(root, filepath.FromSlash(tt.pack)); entry.Pack != want {
					t.Errorf("Get(%q).Pack = %q, want %q", tt.typ, entry.Pack, want)
				}
			}
		})
	}
}

func TestLoad_ExplicitToolsRoot(t *testing.T) {
	root := t.TempDir()
	reg, err := Load(testPath("toolkit.xml"), root)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	entry, err := reg.Get("COMMON")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if want := filepath.Join(root, "common", "unpack_bootimg"); entry.Unpack != want {
		t.Errorf("Unpack = %q, want %q", entry.Unpack, want)
	}
}

func TestLoad_XMLAndYAMLAgree(t *testing.T) {
	fromXML, err := Load(testPath("toolkit.xml"), "")
	if err != nil {
		t.Fatalf("Load xml: %v", err)
	}
	fromYAML, err := Load(testPath("toolkit.yaml"), "")
	if err != nil {
		t.Fatalf("Load yaml: %v", err)
	}
	if !reflect.DeepEqual(fromXML.Entries(), fromYAML.Entries()) {
		t.Errorf("entries differ:\nxml:  %+v\nyaml: %+v", fromXML.Entries(), fromYAML.Entries())
	}
}

func TestLoad_DuplicateLastWins(t *testing.T) {
	reg, err := Load(testPath("duplicate.xml"), "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}

	entry, _ := reg.Get("COMMON")
	root := absTestdata(t)
	if want := filepath.Join(root, "new", "unpack_bootimg"); entry.Unpack != want {
		t.Errorf("Unpack = %q, want %q (last declaration)", entry.Unpack, want)
	}

	overridden := reg.Overridden()
	if len(overridden) != 1 {
		t.Fatalf("Overridden() len = %d, want 1", len(overridden))
	}
	if want := filepath.Join(root, "old", "unpack_bootimg"); overridden[0].Unpack != want {
		t.Errorf("Overridden()[0].Unpack = %q, want %q", overridden[0].Unpack, want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		file       string
		desc       string
		wantIssues bool
	}{
		{"invalid-missing-pack.xml", "tool without pack", true},
		{"invalid-missing-type.yaml", "tool without type", true},
		{"invalid-unknown-key.yaml", "unknown tool field", true},
		{"invalid-empty.yaml", "no tools", true},
		{"invalid-not-xml.xml", "malformed XML", false},
		{"invalid-not-yaml.yaml", "malformed YAML", false},
		{"invalid-version.yaml", "unsupported version", false},
		{"toolkit.json", "unsupported extension", false},
		{"nonexistent.xml", "missing file", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := Load(testPath(tt.file), "")
			if err == nil {
				t.Fatalf("expected error for %s (%s), got nil", tt.file, tt.desc)
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("errors.Is(err, ErrConfig) = false for %v", err)
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Source != testPath(tt.file) {
				t.Errorf("Source = %q, want %q", cfgErr.Source, testPath(tt.file))
			}
			if tt.wantIssues && len(cfgErr.Issues) == 0 {
				t.Errorf("expected schema issues for %s", tt.desc)
			}
		})
	}
}

func TestLoad_MissingFileWrapsNotExist(t *testing.T) {
	_, err := Load(testPath("nonexistent.yaml"), "")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("errors.Is(err, os.ErrNotExist) = false for %v", err)
	}
}

func TestLoad_IssueFields(t *testing.T) {
	_, err := Load(testPath("invalid-missing-pack.xml"), "")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	for _, issue := range cfgErr.Issues {
		if issue.Message == "" {
			t.Error("issue has empty Message")
		}
		if issue.Keyword == "" {
			t.Error("issue has empty Keyword")
		}
	}
}

func TestParse_AbsoluteToolPathKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "unpack")
	data := []byte("tools:\n  - type: COMMON\n    unpack: " + filepath.ToSlash(abs) + "\n    pack: pack\n")

	reg, err := Parse(data, FormatYAML, "/opt/tools")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	entry, _ := reg.Get("COMMON")
	if entry.Unpack != abs {
		t.Errorf("Unpack = %q, want %q", entry.Unpack, abs)
	}
	if want := filepath.Join("/opt/tools", "pack"); entry.Pack != want {
		t.Errorf("Pack = %q, want %q", entry.Pack, want)
	}
}

func TestParse_TrimsXMLText(t *testing.T) {
	data := []byte(`<toolkit version="1">
  <tool type=" COMMON ">
    <unpack>
      unpack_bootimg
    </unpack>
    <pack>pack_bootimg</pack>
  </tool>
</toolkit>`)

	reg, err := Parse(data, FormatXML, "/tools")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	entry, err := reg.Get("COMMON")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if want := filepath.Join("/tools", "unpack_bootimg"); entry.Unpack != want {
		t.Errorf("Unpack = %q, want %q", entry.Unpack, want)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"toolkit.xml", FormatXML, false},
		{"toolkit.XML", FormatXML, false},
		{"toolkit.yaml", FormatYAML, false},
		{"toolkit.yml", FormatYAML, false},
		{"toolkit.json", "", true},
		{"toolkit", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"", false},
		{"1", false},
		{"1.0", false},
		{"v1.2.3", false},
		{"0.9", true},
		{"2.0.0", true},
		{"latest", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := checkVersion(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkVersion(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
		})
	}
}

func TestParse_TypeIdentifiers(t *testing.T) {
	tests := []struct {
		typ     string
		wantErr bool
	}{
		{"HUAWEI+", false},
		{"_x", false},
		{"MTK-V2", false},
		{"MTK 6589", true},
		{`"MTK\t6589"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			data := []byte("tools:\n  - type: " + tt.typ + "\n    unpack: u\n    pack: p\n")
			reg, err := Parse(data, FormatYAML, "/tools")
			if tt.wantErr {
				if !errors.Is(err, ErrConfig) {
					t.Errorf("Parse(%q) error = %v, want ErrConfig", tt.typ, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.typ, err)
			}
			if _, err := reg.Get(tt.typ); err != nil {
				t.Errorf("Get(%q) = %v", tt.typ, err)
			}
		})
	}
}
