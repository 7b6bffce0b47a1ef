// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/temploy/temploy/internal/config"
	"github.com/temploy/temploy/internal/container"
	"github.com/temploy/temploy/internal/deploy"
	"github.com/temploy/temploy/internal/issue"
	"github.com/temploy/temploy/pkg/gitsource"
	"github.com/temploy/temploy/pkg/platform"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and
	// delegates to its services.
	App struct {
		Config    ConfigProvider
		NewCloner ClonerFactory
		NewEngine EngineFactory
		Runner    deploy.CommandRunner
		Getwd     func() (string, error)
		// ConfigDir overrides the platform config directory when set.
		ConfigDir string

		stdout io.Writer
		stderr io.Writer

		// set from global flags
		verboseFlag bool
		configPath  string

		// resolved after config load
		verbose     bool
		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		NewCloner ClonerFactory
		NewEngine EngineFactory
		Runner    deploy.CommandRunner
		Getwd     func() (string, error)
		ConfigDir string
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// TemplateCloner fetches remote templates into local directories.
	TemplateCloner interface {
		Clone(ctx context.Context, url string) (string, error)
		Remove(dir string) error
	}

	// ClonerFactory creates a TemplateCloner caching clones in cacheDir
	// (empty selects the default cache).
	ClonerFactory func(cacheDir string) TemplateCloner

	// EngineFactory returns the preferred container engine or a fallback.
	EngineFactory func(preferred container.EngineType) (container.Engine, error)
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:      deps.Config,
		NewCloner:   deps.NewCloner,
		NewEngine:   deps.NewEngine,
		Runner:      deps.Runner,
		Getwd:       deps.Getwd,
		ConfigDir:   deps.ConfigDir,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		colorScheme: config.ColorSchemeAuto,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.NewCloner == nil {
		app.NewCloner = func(cacheDir string) TemplateCloner { return gitsource.NewCloner(cacheDir) }
	}
	if app.NewEngine == nil {
		app.NewEngine = func(preferred container.EngineType) (container.Engine, error) {
			return container.NewEngine(preferred)
		}
	}
	if app.Runner == nil {
		app.Runner = deploy.ExecRunner{Sandbox: platform.DetectSandbox()}
	}
	if app.Getwd == nil {
		app.Getwd = os.Getwd
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads the configuration and applies its UI settings. The
// --verbose flag always wins over ui.verbose.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.configPath,
		ConfigDirPath:  a.ConfigDir,
	})
	if err != nil {
		a.verbose = a.verboseFlag
		return nil, err
	}
	a.verbose = a.verboseFlag || cfg.UI.Verbose
	a.colorScheme = cfg.UI.ColorScheme
	return cfg, nil
}

// newLogger returns the diagnostic logger: warnings only by default,
// everything in verbose mode.
func (a *App) newLogger() *log.Logger {
	level := log.WarnLevel
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: "temploy",
		Level:  level,
	})
}

// fail renders err for the user and returns the ExitError the handler
// should return. In verbose mode the cause chain and the matching issue
// page are included.
func (a *App) fail(err error) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+ae.Format(a.verbose))
		if a.verbose && ae.Issue != 0 {
			if page := issue.Get(ae.Issue); page != nil {
				if rendered, renderErr := page.Render(a.issueStyle()); renderErr == nil {
					fmt.Fprint(a.stderr, rendered)
				}
			}
		}
	} else {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+err.Error())
	}
	return &ExitError{Code: 1, Err: err}
}

// issueStyle picks the glamour style for issue pages. "auto" follows the
// terminal behind stderr and falls back to plain text when it has no colors.
func (a *App) issueStyle() string {
	switch a.colorScheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return string(a.colorScheme)
	}
	r := lipgloss.NewRenderer(a.stderr)
	switch {
	case r.ColorProfile() == termenv.Ascii:
		return "notty"
	case r.HasDarkBackground():
		return "dark"
	default:
		return "light"
	}
}
