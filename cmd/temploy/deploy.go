// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/temploy/temploy/internal/container"
	"github.com/temploy/temploy/internal/deploy"

	"github.com/spf13/cobra"
)

type deployOptions struct {
	project    string
	tag        string
	service    string
	dockerfile string
	skipCloud  bool
	skipBuild  bool
	push       bool
	noCache    bool
}

func newDeployCommand(app *App) *cobra.Command {
	var opts deployOptions

	cmd := &cobra.Command{
		Use:   "deploy <project>",
		Short: "Build a generated project's image and deploy it",
		Long: `Build the project's container image with Docker or Podman and deploy it
with the configured cloud CLI (gcloud run deploy by default).

Build and push output is written to ` + deploy.BuildLogName + ` and cloud CLI
output to ` + deploy.DeployLogName + `, both in the project directory.
Unset options fall back to the [deploy] section of the project's temploy.toml.`,
		Example: `  temploy deploy ./billing
  temploy deploy ./billing --tag gcr.io/acme/billing:v1 --push
  temploy deploy ./billing --skip-cloud`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.project = args[0]
			return app.runDeploy(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.tag, "tag", "t", "", "image tag (default: <service>:latest)")
	flags.StringVar(&opts.service, "service", "", "cloud service name (default: normalized project directory name)")
	flags.StringVarP(&opts.dockerfile, "dockerfile", "f", "", "Dockerfile path relative to the project (default: Dockerfile)")
	flags.BoolVar(&opts.skipCloud, "skip-cloud", false, "only build (and push) the image")
	flags.BoolVar(&opts.skipBuild, "skip-build", false, "reuse an existing local image")
	flags.BoolVar(&opts.push, "push", false, "push the image after building")
	flags.BoolVar(&opts.noCache, "no-cache", false, "build without the engine's layer cache")

	return cmd
}

func (a *App) runDeploy(ctx context.Context, opts deployOptions) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return a.fail(err)
	}
	logger := a.newLogger()

	engine, err := a.NewEngine(container.EngineType(cfg.ContainerEngine))
	if err != nil {
		return a.fail(toActionable(err, "find container engine", string(cfg.ContainerEngine)))
	}

	deployer := deploy.NewDeployer(engine, logger)
	deployer.Runner = a.Runner
	deployer.Dockerfile = cfg.Deploy.Dockerfile

	if !opts.skipBuild {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render(
			fmt.Sprintf("Building image with %s; this might take a few minutes...", engine.Name())))
	}

	res, err := deployer.Deploy(ctx, deploy.Options{
		ProjectDir: opts.project,
		Image:      opts.tag,
		Service:    opts.service,
		Dockerfile: opts.dockerfile,
		NoCache:    opts.noCache,
		SkipBuild:  opts.skipBuild,
		Push:       opts.push,
		SkipCloud:  opts.skipCloud,
		CloudCLI:   cfg.Deploy.CloudCLI,
		CloudArgs:  cfg.Deploy.CloudArgs,
	})
	if err != nil {
		return a.fail(toActionable(err, "deploy project", opts.project))
	}

	fmt.Fprintln(a.stdout, renderDeployResult(res))
	return nil
}

func renderDeployResult(res *deploy.Result) string {
	var sb strings.Builder
	if res.Deployed {
		sb.WriteString(SuccessStyle.Render(fmt.Sprintf("Service %s has been deployed!", res.Service)))
	} else {
		sb.WriteString(SuccessStyle.Render(fmt.Sprintf("Image %s is ready.", res.Image)))
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "%s %s", TitleStyle.Render("Image:     "), CmdStyle.Render(res.Image))
	if res.Pushed {
		sb.WriteString(" (pushed)")
	}
	if res.Built {
		fmt.Fprintf(&sb, "\n%s %s", TitleStyle.Render("Build log: "), CmdStyle.Render(res.BuildLog))
	}
	if res.Deployed {
		fmt.Fprintf(&sb, "\n%s %s", TitleStyle.Render("Deploy log:"), CmdStyle.Render(res.DeployLog))
	}
	return summaryStyle.Render(sb.String())
}
