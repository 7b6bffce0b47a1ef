// SPDX-License-Identifier: MPL-2.0

// Package config handles temploy configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the temploy configuration
// directory ($XDG_CONFIG_HOME/temploy on Linux, ~/Library/Application Support/temploy
// on macOS, %APPDATA%\temploy on Windows) or from an explicit file. The file is
// validated against the embedded #Config schema (config_schema.cue) before it is
// merged over the defaults, and TEMPLOY_* environment variables override both.
package config
