// Package toolkit loads the registry of boot image tool pairs. Each entry maps
// a boot image type identifier to the unpack and pack programs that understand
// that format. Registries are read from an XML or YAML toolkit document,
// validated against an embedded JSON schema, and are immutable once loaded.
package toolkit
