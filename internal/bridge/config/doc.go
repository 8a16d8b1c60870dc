// Package config defines the castle-bridged configuration.
//
//   - spec.go: BridgeConfig struct definition
//   - default.go: default values
//   - verify.go: validation
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// CASTLE_ environment variables and command-line flags.
package config
