// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/temploy/temploy/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `temploy config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage temploy configuration",
		Long: `Manage temploy configuration.

Configuration is stored in:
  - Linux: ~/.config/temploy/config.cue
  - macOS: ~/Library/Application Support/temploy/config.cue
  - Windows: %APPDATA%\temploy\config.cue

TEMPLOY_* environment variables override file values, for example
TEMPLOY_CONTAINER_ENGINE=podman or TEMPLOY_DEPLOY_CLOUD_CLI=gcloud.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd.Context())
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.initConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) configFilePath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigFilePath(a.ConfigDir)
}

func (a *App) showConfig(ctx context.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return a.fail(err)
	}

	path, err := a.configFilePath()
	if err != nil {
		return a.fail(err)
	}
	if !fileExists(path) {
		path = SubtitleStyle.Render("(using defaults)")
	}

	key := func(k string) string { return CmdStyle.Render(k) }
	value := func(v any) string { return SuccessStyle.Render(fmt.Sprint(v)) }

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s: %s\n\n", key("Config file"), path)
	fmt.Fprintf(a.stdout, "%s: %s\n", key("container_engine"), value(cfg.ContainerEngine))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("generate.target_dir"), value(orDefault(cfg.Generate.TargetDir, "(working directory)")))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("generate.clone_dir"), value(orDefault(cfg.Generate.CloneDir, "(user cache)")))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("deploy.cloud_cli"), value(cfg.Deploy.CloudCLI))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("deploy.cloud_args"), value(strings.Join(cfg.Deploy.CloudArgs, " ")))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("deploy.dockerfile"), value(orDefault(cfg.Deploy.Dockerfile, "(Dockerfile)")))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("ui.color_scheme"), value(cfg.UI.ColorScheme))
	fmt.Fprintf(a.stdout, "%s: %s\n", key("ui.verbose"), value(cfg.UI.Verbose))
	return nil
}

func (a *App) initConfig() error {
	path, created, err := config.CreateDefaultConfig(a.ConfigDir)
	if err != nil {
		return a.fail(toActionable(err, "create configuration", a.ConfigDir))
	}
	if created {
		fmt.Fprintln(a.stdout, SuccessStyle.Render("Created configuration file: ")+path)
	} else {
		fmt.Fprintln(a.stdout, WarningStyle.Render("Configuration file already exists: ")+path)
	}
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
