// Package config loads, normalizes, and validates the tool's TOML
// configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/anthingest/config.toml, then anthingest.toml in the working
// directory; defaults apply when no file exists. All path fields are
// tilde-expanded and made absolute during load, so downstream code never
// normalizes paths itself.
package config
