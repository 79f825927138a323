// Package config loads dynreg configuration.
//
// Sources are layered, later ones winning:
//
//  1. the embedded defaults (embedded/defaults.toml)
//  2. the user file: an explicit path, or $XDG_CONFIG_HOME/dynreg/config.toml
//     when it exists
//  3. DYNREG_ environment variables, DYNREG_OUTPUT_FORMAT setting output.format
//
// The merged tree is decoded into Config with mapstructure.
package config
