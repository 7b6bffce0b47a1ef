// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"io/fs"

	"github.com/temploy/temploy/internal/container"
	"github.com/temploy/temploy/internal/deploy"
	"github.com/temploy/temploy/internal/issue"
	"github.com/temploy/temploy/pkg/gitsource"
	"github.com/temploy/temploy/pkg/manifest"
	"github.com/temploy/temploy/pkg/scaffold"
)

// errorRule maps an error kind to its catalog issue and remediation hints.
type errorRule struct {
	kind        error
	issue       issue.Id
	suggestions []string
}

// errorRules are checked in order; the first matching kind wins.
var errorRules = []errorRule{
	{scaffold.ErrInvalidTemplatePath, issue.TemplateNotFoundId, []string{
		"Check that the template path exists and is a directory",
		"Pass a git URL to use a remote template",
	}},
	{scaffold.ErrInvalidSourceIdentifier, issue.InvalidSourceIdentifierId, []string{
		"Use --name to choose the project name explicitly",
	}},
	{scaffold.ErrInvalidProjectName, issue.InvalidProjectNameId, []string{
		"Use --name with at least one letter or digit",
	}},
	{scaffold.ErrDirectoryAlreadyExists, issue.DestinationExistsId, []string{
		"Choose another name with --name",
		"Choose another parent directory with --target-directory",
		"Remove the existing directory if it is no longer needed",
	}},
	{scaffold.ErrDestinationInsideTemplate, issue.DestinationInsideTemplateId, []string{
		"Choose a --target-directory outside the template",
		"Run generate from outside the template directory",
	}},
	{scaffold.ErrDirectoryCreationFailed, issue.DestinationCreateFailedId, []string{
		"Check that the target directory is writable",
	}},
	{scaffold.ErrCanonicalizationFailed, issue.DestinationCreateFailedId, nil},
	{manifest.ErrParse, issue.ManifestParseErrorId, []string{
		"Fix or remove the template's temploy.toml",
	}},
	{scaffold.ErrEntryRead, issue.TemplateReadFailedId, []string{
		"Check the permissions of the template files",
	}},
	{scaffold.ErrPrefixStrip, issue.TemplateReadFailedId, nil},
	{scaffold.ErrIO, issue.CopyFailedId, []string{
		"The partially generated project was left on disk; remove it before retrying",
	}},
	{gitsource.ErrClone, issue.CloneFailedId, []string{
		"Check the repository URL and your network connection",
		"For private repositories set GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN, or load an SSH key",
	}},
	{container.ErrEngineNotAvailable, issue.ContainerEngineNotFoundId, []string{
		"Install Docker or Podman and make sure the daemon is running",
		"Set container_engine in the temploy config to the engine you have",
	}},
	{deploy.ErrInvalidDeploymentPath, issue.InvalidDeploymentPathId, []string{
		"Pass the directory of a generated project",
	}},
	{deploy.ErrDockerfileNotFound, issue.DockerfileNotFoundId, []string{
		"Add a Dockerfile to the project or pass --dockerfile",
	}},
	{deploy.ErrImageNotFound, issue.ImageBuildFailedId, []string{
		"Build the image first by running deploy without --skip-build",
	}},
	{deploy.ErrBuild, issue.ImageBuildFailedId, []string{
		"Inspect " + deploy.BuildLogName + " in the project directory",
	}},
	{deploy.ErrPush, issue.ImageBuildFailedId, []string{
		"Log in to the registry and check the image tag",
	}},
	{deploy.ErrCloudDeploy, issue.CloudDeployFailedId, []string{
		"Inspect " + deploy.DeployLogName + " in the project directory",
		"Check that the cloud CLI is installed and authenticated",
	}},
	{fs.ErrPermission, issue.PermissionDeniedId, nil},
}

// toActionable wraps err with operation and resource context, attaching the
// issue and suggestions of the first matching rule. ActionableErrors are
// returned unchanged.
func toActionable(err error, operation, resource string) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)
	for _, rule := range errorRules {
		if errors.Is(err, rule.kind) {
			ctx.WithIssue(rule.issue).WithSuggestions(rule.suggestions...)
			break
		}
	}
	return ctx.BuildError()
}
