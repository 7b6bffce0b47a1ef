// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/temploy/temploy/pkg/gitsource"
	"github.com/temploy/temploy/pkg/scaffold"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	template  string
	name      string
	targetDir string
}

func newGenerateCommand(app *App) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate <template>",
		Short: "Generate a new project from a template",
		Long: `Generate a new project by copying a template directory.

The template is a local directory or a git repository URL, which is cloned
for the duration of the command. The project name is taken from --name, the
repository URL or the template directory (with a "-clone" suffix) and is
normalized to lowercase kebab-case. The .git directory and the patterns listed
in the template's temploy.toml are not copied.`,
		Example: `  temploy generate ./templates/web-api
  temploy generate ./templates/web-api --name billing --target-directory ~/src
  temploy generate https://github.com/acme/go-service.git`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.template = args[0]
			return app.runGenerate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "name of the generated project")
	cmd.Flags().StringVarP(&opts.targetDir, "target-directory", "d", "", "parent directory of the generated project (default: working directory)")

	return cmd
}

func (a *App) runGenerate(ctx context.Context, opts generateOptions) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return a.fail(err)
	}
	logger := a.newLogger()

	templateRoot := opts.template
	source := scaffold.None[string]()
	if isRemoteTemplate(opts.template) {
		cloner := a.NewCloner(cfg.Generate.CloneDir)
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("Cloning "+opts.template+"..."))

		dir, err := cloner.Clone(ctx, opts.template)
		if err != nil {
			return a.fail(toActionable(err, "clone template", opts.template))
		}
		defer func() {
			if err := cloner.Remove(dir); err != nil {
				logger.Warn("failed to remove template clone", "dir", dir, "err", err)
			}
		}()

		templateRoot = dir
		source = scaffold.Some(opts.template)
	}

	target := scaffold.NonEmpty(opts.targetDir)
	if !target.IsPresent() {
		target = scaffold.NonEmpty(cfg.Generate.TargetDir)
	}

	wd, err := a.Getwd()
	if err != nil {
		return a.fail(toActionable(err, "determine working directory", ""))
	}

	fmt.Fprintln(a.stdout, "Generating project...")

	summary, err := scaffold.NewGenerator(wd, logger).Generate(ctx, scaffold.GenerationRequest{
		TemplateRoot:     templateRoot,
		TargetParent:     target,
		ExplicitName:     scaffold.NonEmpty(opts.name),
		SourceIdentifier: source,
	})
	if err != nil {
		if summary != nil {
			fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+
				fmt.Sprintf("a partial project was left at %s (%d files, %d directories)",
					summary.Destination, summary.Files, summary.Directories))
		}
		return a.fail(toActionable(err, "generate project", opts.template))
	}

	fmt.Fprintln(a.stdout, renderSummary(summary))
	return nil
}

// isRemoteTemplate reports whether arg should be cloned. An existing local
// directory always wins, so a directory named "x.git" is used as is.
func isRemoteTemplate(arg string) bool {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return false
	}
	return gitsource.IsRemote(arg)
}

func renderSummary(s *scaffold.Summary) string {
	var sb strings.Builder
	sb.WriteString(SuccessStyle.Render(fmt.Sprintf("Project %s has been successfully generated!", s.Name)))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "%s %s\n", TitleStyle.Render("Location:"), CmdStyle.Render(s.Destination))
	fmt.Fprintf(&sb, "%s %d files, %d directories, %d bytes",
		TitleStyle.Render("Copied:  "), s.Files, s.Directories, s.Bytes)
	return summaryStyle.Render(sb.String())
}
