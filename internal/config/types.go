// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temploy/temploy/internal/deploy"
)

const (
	// ContainerEngineDocker builds images with Docker.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman builds images with Podman.
	ContainerEnginePodman ContainerEngine = "podman"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDeployConfig is the sentinel error wrapped by InvalidDeployConfigError.
	ErrInvalidDeployConfig = errors.New("invalid deploy config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container engine builds images.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidDeployConfigError collects field errors of a DeployConfig.
	InvalidDeployConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects field errors from all sections of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine is the preferred engine; the other one is used when
		// it is not installed.
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		Generate        GenerateConfig  `json:"generate" mapstructure:"generate"`
		Deploy          DeployConfig    `json:"deploy" mapstructure:"deploy"`
		UI              UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// GenerateConfig configures `temploy generate`.
	GenerateConfig struct {
		// TargetDir is the default parent for new projects; empty means the
		// working directory.
		TargetDir string `json:"target_dir" mapstructure:"target_dir"`
		// CloneDir caches remote template clones; empty means the user cache dir.
		CloneDir string `json:"clone_dir" mapstructure:"clone_dir"`
	}

	// DeployConfig configures `temploy deploy`. Dockerfile applies only when
	// neither the command line nor the project's temploy.toml names one.
	DeployConfig struct {
		CloudCLI   string   `json:"cloud_cli" mapstructure:"cloud_cli"`
		CloudArgs  []string `json:"cloud_args" mapstructure:"cloud_args"`
		Dockerfile string   `json:"dockerfile" mapstructure:"dockerfile"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineDocker,
		Deploy: DeployConfig{
			CloudCLI:  deploy.DefaultCloudCLI,
			CloudArgs: append([]string(nil), deploy.DefaultCloudArgs...),
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// IsValid reports whether every field of the Config is valid. CUE checks
// the file, but environment overrides only meet these checks.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Deploy.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid reports whether the deploy section names a cloud CLI.
func (c DeployConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.CloudCLI) == "" {
		errs = append(errs, errors.New("deploy.cloud_cli must not be empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidDeployConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidDeployConfigError) Error() string {
	return fmt.Sprintf("invalid deploy config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidDeployConfig for errors.Is() compatibility.
func (e *InvalidDeployConfigError) Unwrap() error { return ErrInvalidDeployConfig }

func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine types.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}
