// Package config manages user-level settings stored at ~/.bootimg/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the toolkit document location, the tools root, and the per-attempt timeout
// used while probing boot images.
package config
