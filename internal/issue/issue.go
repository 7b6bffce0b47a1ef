// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	TemplateNotFoundId Id = iota + 1
	InvalidSourceIdentifierId
	InvalidProjectNameId
	DestinationExistsId
	DestinationCreateFailedId
	TemplateReadFailedId
	CopyFailedId
	ManifestParseErrorId
	CloneFailedId
	ContainerEngineNotFoundId
	DockerfileNotFoundId
	ImageBuildFailedId
	CloudDeployFailedId
	InvalidDeploymentPathId
	ConfigLoadFailedId
	PermissionDeniedId
	DestinationInsideTemplateId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Renderer interface {
		Render(in string, stylePath string) (string, error)
	}

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // reference documentation for the failing tool
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue with glamour. stylePath is a glamour style name
// ("dark", "light", "notty", ...) or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, links := range [][]HttpLink{i.docLinks, i.extLinks} {
			for _, link := range links {
				md.WriteString("- <" + string(link) + ">\n")
			}
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	templateNotFoundIssue = &Issue{
		id: TemplateNotFoundId,
		mdMsg: `
# Template not found!

The template path does not exist or is not a directory.

## Things you can try:
- Check the path for typos:
~~~
$ ls path/to/template
~~~
- Pass a remote repository instead of a local path:
~~~
$ temploy generate https://github.com/org/template.git
~~~`,
	}

	invalidSourceIdentifierIssue = &Issue{
		id: InvalidSourceIdentifierId,
		mdMsg: `
# Cannot derive a project name from the repository URL!

The project name is taken from the last segment of the repository URL
(` + "`git@host:org/my-proj.git`" + ` becomes ` + "`my-proj-clone`" + `), and that segment was empty.

## Things you can try:
- Pass an explicit name:
~~~
$ temploy generate <url> --name my-project
~~~`,
		extLinks: []HttpLink{"https://git-scm.com/docs/git-clone#_git_urls"},
	}

	invalidProjectNameIssue = &Issue{
		id: InvalidProjectNameId,
		mdMsg: `
# Invalid project name!

Project names are converted to lowercase words joined by hyphens. Only
letters and digits are kept, so the name you gave ended up empty.

## Things you can try:
- Use a name with at least one letter or digit, e.g. ` + "`--name my-project`",
	}

	destinationExistsIssue = &Issue{
		id: DestinationExistsId,
		mdMsg: `
# Destination already exists!

temploy never writes into an existing directory, so nothing was changed.

## Things you can try:
- Choose another name with ` + "`--name`" + `
- Choose another parent directory with ` + "`--target-directory`" + `
- Remove or rename the existing directory if you no longer need it`,
	}

	destinationCreateFailedIssue = &Issue{
		id: DestinationCreateFailedId,
		mdMsg: `
# Could not create the project directory!

## Things you can try:
- Check that the parent directory is writable
- Check that no component of the target path is a regular file
- Check free disk space`,
	}

	templateReadFailedIssue = &Issue{
		id: TemplateReadFailedId,
		mdMsg: `
# Could not read the template!

An entry of the template could not be read. Symlinks to directories and
special files (sockets, devices, pipes) are not supported.

## Things you can try:
- Check the permissions of the template files
- Replace unsupported symlinks with regular files or directories
- Exclude the entry in the template's ` + "`temploy.toml`" + `:
~~~toml
exclude = ["path/to/entry"]
~~~`,
	}

	copyFailedIssue = &Issue{
		id: CopyFailedId,
		mdMsg: `
# Copying the template failed!

The project directory was created and may contain a partial copy. It is
left in place so you can inspect it.

## Things you can try:
- Check free disk space and permissions on the destination
- Remove the partial project directory and run the command again`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Invalid temploy.toml!

The template manifest could not be parsed. Unknown keys are rejected.

## Supported keys:
~~~toml
exclude = ["**/*.log", "node_modules"]

[deploy]
service    = "my-service"
image      = "registry.example.com/my-service:latest"
dockerfile = "Dockerfile"
~~~`,
		extLinks: []HttpLink{"https://toml.io/en/v1.0.0"},
	}

	cloneFailedIssue = &Issue{
		id: CloneFailedId,
		mdMsg: `
# Could not clone the template repository!

## Things you can try:
- Check the URL and your network connection
- For private HTTPS repositories set one of ` + "`GITHUB_TOKEN`, `GITLAB_TOKEN` or `GIT_TOKEN`" + `
- For SSH repositories make sure a key exists in ` + "`~/.ssh`" + ` (id_ed25519, id_rsa or id_ecdsa)`,
		extLinks: []HttpLink{"https://git-scm.com/docs/git-clone"},
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

Deploying requires Docker or Podman.

## Things you can try:
- Install Docker or Podman and make sure it is on your PATH
- Select the engine in your config:
~~~cue
container_engine: "podman"
~~~`,
		extLinks: []HttpLink{"https://docs.docker.com/get-docker/", "https://podman.io/docs/installation"},
	}

	dockerfileNotFoundIssue = &Issue{
		id: DockerfileNotFoundId,
		mdMsg: `
# Dockerfile not found!

## Things you can try:
- Add a ` + "`Dockerfile`" + ` at the project root
- Point to another file with ` + "`--dockerfile`" + ` or ` + "`[deploy] dockerfile`" + ` in ` + "`temploy.toml`",
	}

	imageBuildFailedIssue = &Issue{
		id: ImageBuildFailedId,
		mdMsg: `
# Image build failed!

The complete build output was written to ` + "`temploy-build.log`" + ` in the project directory.

## Things you can try:
- Read the build log for the failing step
- Check Dockerfile syntax and base image availability`,
		docLinks: []HttpLink{"https://docs.docker.com/reference/dockerfile/"},
	}

	cloudDeployFailedIssue = &Issue{
		id: CloudDeployFailedId,
		mdMsg: `
# Cloud deploy failed!

The complete output was written to ` + "`temploy-deploy.log`" + ` in the project directory.

## Things you can try:
- Make sure the cloud CLI is installed and authenticated:
~~~
$ gcloud auth login
~~~
- Check ` + "`deploy.cloud_args`" + ` in your config
- Skip the cloud step with ` + "`--skip-cloud`",
		docLinks: []HttpLink{"https://cloud.google.com/sdk/gcloud/reference/run/deploy"},
	}

	invalidDeploymentPathIssue = &Issue{
		id: InvalidDeploymentPathId,
		mdMsg: `
# Invalid deployment path!

The project to deploy must be an existing directory.

## Things you can try:
- Generate the project first:
~~~
$ temploy generate ./template --name my-project
$ temploy deploy ./my-project
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Show where temploy looks for its config:
~~~
$ temploy config path
~~~
- Write a fresh default config:
~~~
$ temploy config init
~~~
- Check the CUE syntax of your config file`,
		docLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

## Things you can try:
- Check the file and directory permissions
- Check the ownership of the target directory`,
	}

	destinationInsideTemplateIssue = &Issue{
		id: DestinationInsideTemplateId,
		mdMsg: `
# Destination is inside the template!

The new project would be created within the template it copies from, so
nothing was changed.

## Things you can try:
- Choose a parent directory outside the template with ` + "`--target-directory`" + `
- Run ` + "`temploy generate`" + ` from outside the template directory`,
	}

	catalog = []*Issue{
		templateNotFoundIssue,
		invalidSourceIdentifierIssue,
		invalidProjectNameIssue,
		destinationExistsIssue,
		destinationCreateFailedIssue,
		templateReadFailedIssue,
		copyFailedIssue,
		manifestParseErrorIssue,
		cloneFailedIssue,
		containerEngineNotFoundIssue,
		dockerfileNotFoundIssue,
		imageBuildFailedIssue,
		cloudDeployFailedIssue,
		invalidDeploymentPathIssue,
		configLoadFailedIssue,
		permissionDeniedIssue,
		destinationInsideTemplateIssue,
	}
)

// Values returns every catalog issue ordered by Id.
func Values() []*Issue {
	return slices.Clone(catalog)
}

// Get returns the issue for id, or nil when id is unknown.
func Get(id Id) *Issue {
	i, found := slices.BinarySearchFunc(catalog, id, func(issue *Issue, target Id) int {
		return int(issue.id) - int(target)
	})
	if !found {
		return nil
	}
	return catalog[i]
}
