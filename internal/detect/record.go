package detect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// RecordFile is the name of the type record written into an output directory.
const RecordFile = "type.config"

// DefaultType is assumed when no usable type record exists.
const DefaultType = "COMMON"

// StoreType writes typ as the only content of the type record in outDir,
// replacing any previous record.
func StoreType(typ, outDir string) error {
	if typ == "" {
		return fmt.Errorf("storing type record: empty type")
	}
	path := filepath.Join(outDir, RecordFile)
	if err := os.WriteFile(path, []byte(typ), 0644); err != nil {
		return fmt.Errorf("%w: storing type record %s: %w", ErrIO, path, err)
	}
	return nil
}

// ReadType returns the type recorded in outDir. Surrounding whitespace is
// trimmed; an empty record or one spanning several tokens is an error.
func ReadType(outDir string) (string, error) {
	path := filepath.Join(outDir, RecordFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading type record: %w", err)
	}
	typ := strings.TrimSpace(string(data))
	if typ == "" || strings.ContainsAny(typ, " \t\r\n") {
		return "", fmt.Errorf("type record %s is corrupt: %q", path, typ)
	}
	return typ, nil
}

// RetrieveType returns the type recorded in outDir, or DefaultType when the
// record is missing, unreadable, or corrupt. It never fails because packing
// always needs some type to act on.
func RetrieveType(outDir string) string {
	typ, err := ReadType(outDir)
	if err != nil {
		log.Warn("no usable type record, using default", "dir", outDir, "default", DefaultType, "err", err)
		return DefaultType
	}
	return typ
}
