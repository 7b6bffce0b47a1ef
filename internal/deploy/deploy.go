// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/temploy/temploy/internal/container"
	"github.com/temploy/temploy/pkg/manifest"
	"github.com/temploy/temploy/pkg/scaffold"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"
)

const (
	// BuildLogName is the file, in the project directory, receiving build and push output.
	BuildLogName = "temploy-build.log"
	// DeployLogName is the file, in the project directory, receiving cloud CLI output.
	DeployLogName = "temploy-deploy.log"

	// DockerIgnoreName lists paths kept out of the image build context.
	DockerIgnoreName = ".dockerignore"

	// DefaultDockerfile is used when neither options nor manifest name one.
	DefaultDockerfile = "Dockerfile"
	// DefaultCloudCLI is the cloud CLI run after the build.
	DefaultCloudCLI = "gcloud"

	defaultPushAttempts = 3
	defaultPushBackoff  = 2 * time.Second
)

// DefaultCloudArgs deploys the image as a Cloud Run service.
var DefaultCloudArgs = []string{"run", "deploy", "$SERVICE", "--image", "$IMAGE"}

type (
	// Options describes one deployment. Zero values fall back to the
	// project's temploy.toml, then to the Deployer and package defaults.
	Options struct {
		// ProjectDir is the generated project to deploy.
		ProjectDir string
		// Image is the image tag to build.
		Image string
		// Service is the cloud service name.
		Service string
		// Dockerfile is relative to ProjectDir unless absolute.
		Dockerfile string
		// NoCache disables the build cache.
		NoCache bool
		// SkipBuild reuses an existing local image.
		SkipBuild bool
		// Push pushes the image after building.
		Push bool
		// SkipCloud stops after the build (and push).
		SkipCloud bool
		// CloudCLI is the cloud program to run.
		CloudCLI string
		// CloudArgs are expanded with $IMAGE, $SERVICE, $PROJECT_DIR and
		// the process environment before running CloudCLI.
		CloudArgs []string
	}

	// Result describes a finished deployment.
	Result struct {
		ProjectDir string
		Image      string
		Service    string
		Dockerfile string
		BuildLog   string
		DeployLog  string
		Built      bool
		Pushed     bool
		Deployed   bool
	}

	// Deployer runs deployments.
	Deployer struct {
		Engine container.Engine
		Runner CommandRunner
		Logger *log.Logger
		// Getenv resolves variables in cloud arguments; nil means os.Getenv.
		Getenv func(string) string
		// PushBackoff is the first wait between push attempts.
		PushBackoff time.Duration
		// Dockerfile is used when neither options nor manifest name one;
		// empty means DefaultDockerfile.
		Dockerfile string
	}
)

// NewDeployer creates a Deployer running cloud commands as subprocesses.
func NewDeployer(engine container.Engine, logger *log.Logger) *Deployer {
	return &Deployer{
		Engine: engine,
		Runner: ExecRunner{},
		Logger: logger,
	}
}

// Deploy builds, optionally pushes, and deploys the project in opts.ProjectDir.
func (d *Deployer) Deploy(ctx context.Context, opts Options) (*Result, error) {
	logger := d.logger()

	res, err := d.resolve(opts)
	if err != nil {
		return nil, err
	}

	if opts.SkipBuild {
		exists, err := d.Engine.ImageExists(ctx, res.Image)
		if err != nil {
			return res, err
		}
		if !exists {
			return res, fmt.Errorf("%w: %s", ErrImageNotFound, res.Image)
		}
		logger.Info("reusing image", "image", res.Image)
	} else if err := d.build(ctx, res, opts.NoCache, opts.Push); err != nil {
		return res, err
	}

	if opts.SkipCloud {
		logger.Info("cloud deploy skipped", "image", res.Image)
		return res, nil
	}

	if err := d.cloudDeploy(ctx, res, opts); err != nil {
		return res, err
	}
	return res, nil
}

// resolve validates the project and fills unset options.
func (d *Deployer) resolve(opts Options) (*Result, error) {
	dir, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return nil, &InvalidDeploymentPathError{Path: opts.ProjectDir}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, &InvalidDeploymentPathError{Path: opts.ProjectDir}
	}

	m, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ProjectDir: dir,
		Image:      firstNonEmpty(opts.Image, m.Deploy.Image),
		Service:    firstNonEmpty(opts.Service, m.Deploy.Service),
		Dockerfile: firstNonEmpty(opts.Dockerfile, m.Deploy.Dockerfile, d.Dockerfile, DefaultDockerfile),
		BuildLog:   filepath.Join(dir, BuildLogName),
		DeployLog:  filepath.Join(dir, DeployLogName),
	}

	if res.Service == "" {
		if res.Service, err = scaffold.NormalizeName(filepath.Base(dir)); err != nil {
			return nil, err
		}
	}
	if res.Image == "" {
		res.Image = res.Service + ":latest"
	}

	dockerfile := res.Dockerfile
	if !filepath.IsAbs(dockerfile) {
		dockerfile = filepath.Join(dir, dockerfile)
	}
	if !opts.SkipBuild {
		if info, err := os.Stat(dockerfile); err != nil || info.IsDir() {
			return nil, &DockerfileNotFoundError{Path: dockerfile}
		}
	}

	return res, nil
}

func (d *Deployer) build(ctx context.Context, res *Result, noCache, push bool) error {
	logger := d.logger()

	// The logs live in the build context; keep them out of the image.
	if err := ignoreLogs(res.ProjectDir); err != nil {
		return &StepError{Step: StepBuild, Err: err}
	}

	logFile, err := createLog(res.BuildLog)
	if err != nil {
		return &StepError{Step: StepBuild, Err: err}
	}
	defer func() { _ = logFile.Close() }() // output already flushed by the engine

	version, err := d.Engine.Version(ctx)
	if err != nil {
		logger.Debug("engine version unavailable", "engine", d.Engine.Name(), "err", err)
	}
	logger.Info("building image", "engine", d.Engine.Name(), "version", version, "image", res.Image, "log", res.BuildLog)

	err = d.Engine.Build(ctx, container.BuildOptions{
		ContextDir: res.ProjectDir,
		Dockerfile: res.Dockerfile,
		Tag:        res.Image,
		NoCache:    noCache,
		Stdout:     logFile,
		Stderr:     logFile,
	})
	if err != nil {
		return &StepError{Step: StepBuild, LogPath: res.BuildLog, Err: err}
	}
	res.Built = true

	if !push {
		return nil
	}

	logger.Info("pushing image", "image", res.Image)
	backoff := d.PushBackoff
	if backoff == 0 {
		backoff = defaultPushBackoff
	}
	err = container.PushWithRetry(ctx, d.Engine, res.Image, logFile, container.PushPolicy{
		Attempts: defaultPushAttempts,
		Backoff:  backoff,
		OnRetry: func(attempt int, err error) {
			logger.Warn("retrying push", "image", res.Image, "attempt", attempt, "err", err)
		},
	})
	if err != nil {
		return &StepError{Step: StepPush, LogPath: res.BuildLog, Err: err}
	}
	res.Pushed = true
	return nil
}

func (d *Deployer) cloudDeploy(ctx context.Context, res *Result, opts Options) error {
	logger := d.logger()

	cli := firstNonEmpty(opts.CloudCLI, DefaultCloudCLI)
	rawArgs := opts.CloudArgs
	if len(rawArgs) == 0 {
		rawArgs = DefaultCloudArgs
	}

	args, err := d.expandArgs(rawArgs, res)
	if err != nil {
		return &StepError{Step: StepCloud, Err: err}
	}

	logFile, err := createLog(res.DeployLog)
	if err != nil {
		return &StepError{Step: StepCloud, Err: err}
	}
	defer func() { _ = logFile.Close() }() // output already flushed by the subprocess

	logger.Info("deploying", "cli", cli, "service", res.Service, "image", res.Image, "log", res.DeployLog)
	err = d.Runner.Run(ctx, Command{
		Name:   cli,
		Args:   args,
		Dir:    res.ProjectDir,
		Stdout: logFile,
		Stderr: logFile,
	})
	if err != nil {
		return &StepError{Step: StepCloud, LogPath: res.DeployLog, Err: err}
	}

	res.Deployed = true
	return nil
}

// expandArgs applies shell parameter expansion to every argument. Command
// substitution is not supported, so arguments never run code.
func (d *Deployer) expandArgs(raw []string, res *Result) ([]string, error) {
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	vars := map[string]string{
		"IMAGE":       res.Image,
		"SERVICE":     res.Service,
		"PROJECT_DIR": res.ProjectDir,
	}
	env := func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return getenv(name)
	}

	args := make([]string, 0, len(raw))
	for _, arg := range raw {
		expanded, err := shell.Expand(arg, env)
		if err != nil {
			return nil, fmt.Errorf("invalid cloud argument %q: %w", arg, err)
		}
		args = append(args, expanded)
	}
	return args, nil
}

func (d *Deployer) logger() *log.Logger {
	if d.Logger == nil {
		return log.New(io.Discard)
	}
	return d.Logger
}

func createLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return f, nil
}

// ignoreLogs appends the log file names missing from dir's .dockerignore,
// creating it when absent. Existing lines are left untouched.
func ignoreLogs(dir string) error {
	path := filepath.Join(dir, DockerIgnoreName)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", DockerIgnoreName, err)
	}

	var lines []string
	for line := range strings.SplitSeq(string(data), "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}

	var missing strings.Builder
	for _, name := range []string{BuildLogName, DeployLogName} {
		if !slices.Contains(lines, name) && !slices.Contains(lines, "/"+name) {
			missing.WriteString(name + "\n")
		}
	}
	if missing.Len() == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", DockerIgnoreName, err)
	}
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		_, _ = f.WriteString("\n")
	}
	if _, err := f.WriteString(missing.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to update %s: %w", DockerIgnoreName, err)
	}
	return f.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
