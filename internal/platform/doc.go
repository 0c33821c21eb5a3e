// Package platform provides cross-platform filesystem helpers for permission
// management. On Unix systems it uses chmod and mode bits directly; on Windows,
// which has no Unix permission bits, the helpers degrade to existence checks.
package platform
