// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/temploy/temploy/internal/container"
	"github.com/temploy/temploy/internal/testutil"
	"github.com/temploy/temploy/pkg/manifest"
)

type (
	fakeEngine struct {
		mu         sync.Mutex
		builds     []container.BuildOptions
		pushes     int
		buildErr   error
		pushErrs   []error // returned in order, then nil
		haveImages map[string]bool
	}

	fakeRunner struct {
		commands []Command
		output   string
		err      error
	}
)

func (e *fakeEngine) Name() string                            { return "fake" }
func (e *fakeEngine) Available() bool                         { return true }
func (e *fakeEngine) Version(context.Context) (string, error) { return "1.0", nil }
func (e *fakeEngine) ImageExists(_ context.Context, image string) (bool, error) {
	return e.haveImages[image], nil
}

func (e *fakeEngine) Build(_ context.Context, opts container.BuildOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.builds = append(e.builds, opts)
	fmt.Fprintln(opts.Stdout, "STEP 1/2: FROM scratch")
	return e.buildErr
}

func (e *fakeEngine) Push(_ context.Context, image string, out io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pushes++
	fmt.Fprintln(out, "pushing", image)
	if len(e.pushErrs) > 0 {
		err := e.pushErrs[0]
		e.pushErrs = e.pushErrs[1:]
		return err
	}
	return nil
}

func (r *fakeRunner) Run(_ context.Context, cmd Command) error {
	r.commands = append(r.commands, cmd)
	fmt.Fprint(cmd.Stdout, r.output)
	return r.err
}

// newProject creates a project directory with a Dockerfile and extra files.
func newProject(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := files["Dockerfile"]; !ok {
		files["Dockerfile"] = "FROM scratch\n"
	}
	testutil.WriteFiles(t, dir, files)
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestDeploy_Defaults(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "My App", map[string]string{})
	engine := &fakeEngine{}
	runner := &fakeRunner{output: "Service [my-app] deployed\n"}
	d := &Deployer{Engine: engine, Runner: runner}

	res, err := d.Deploy(context.Background(), Options{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	if res.Service != "my-app" || res.Image != "my-app:latest" {
		t.Errorf("Service = %q, Image = %q", res.Service, res.Image)
	}
	if !res.Built || res.Pushed || !res.Deployed {
		t.Errorf("unexpected flags %+v", res)
	}

	if len(engine.builds) != 1 {
		t.Fatalf("expected 1 build, got %d", len(engine.builds))
	}
	build := engine.builds[0]
	if build.ContextDir != res.ProjectDir || build.Dockerfile != DefaultDockerfile || build.Tag != "my-app:latest" {
		t.Errorf("unexpected build options %+v", build)
	}

	if len(runner.commands) != 1 {
		t.Fatalf("expected 1 cloud command, got %d", len(runner.commands))
	}
	cmd := runner.commands[0]
	if cmd.Name != DefaultCloudCLI || cmd.Dir != res.ProjectDir {
		t.Errorf("unexpected command %+v", cmd)
	}
	if want := []string{"run", "deploy", "my-app", "--image", "my-app:latest"}; !slices.Equal(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}

	if got := readFile(t, filepath.Join(dir, BuildLogName)); !strings.Contains(got, "STEP 1/2") {
		t.Errorf("build log = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, DeployLogName)); !strings.Contains(got, "deployed") {
		t.Errorf("deploy log = %q", got)
	}
}

func TestDeploy_ManifestAndOverrides(t *testing.T) {
	t.Parallel()
	toml := `[deploy]
service    = "hello-api"
image      = "gcr.io/acme/hello:1"
dockerfile = "build/Dockerfile"
`

	t.Run("manifest fills unset options", func(t *testing.T) {
		t.Parallel()
		dir := newProject(t, "proj", map[string]string{manifest.FileName: toml, "build/Dockerfile": "FROM scratch"})
		engine := &fakeEngine{}
		d := &Deployer{Engine: engine, Runner: &fakeRunner{}}

		res, err := d.Deploy(context.Background(), Options{ProjectDir: dir, SkipCloud: true})
		if err != nil {
			t.Fatalf("Deploy() error = %v", err)
		}
		if res.Service != "hello-api" || res.Image != "gcr.io/acme/hello:1" || res.Dockerfile != "build/Dockerfile" {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("options override manifest", func(t *testing.T) {
		t.Parallel()
		dir := newProject(t, "proj", map[string]string{manifest.FileName: toml, "Other.dockerfile": "FROM scratch"})
		engine := &fakeEngine{}
		d := &Deployer{Engine: engine, Runner: &fakeRunner{}}

		res, err := d.Deploy(context.Background(), Options{
			ProjectDir: dir,
			Service:    "svc",
			Image:      "img:2",
			Dockerfile: "Other.dockerfile",
			SkipCloud:  true,
		})
		if err != nil {
			t.Fatalf("Deploy() error = %v", err)
		}
		if res.Service != "svc" || res.Image != "img:2" || engine.builds[0].Dockerfile != "Other.dockerfile" {
			t.Errorf("unexpected result %+v", res)
		}
	})
}

func TestDeploy_InvalidPath(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(t.TempDir(), "missing"), file} {
		engine := &fakeEngine{}
		_, err := (&Deployer{Engine: engine, Runner: &fakeRunner{}}).Deploy(context.Background(), Options{ProjectDir: path})
		if !errors.Is(err, ErrInvalidDeploymentPath) {
			t.Errorf("Deploy(%s) error = %v, want ErrInvalidDeploymentPath", path, err)
		}
		if len(engine.builds) != 0 {
			t.Error("nothing should be built")
		}
	}
}

func TestDeploy_DockerfileMissing(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "proj", map[string]string{})
	engine := &fakeEngine{}

	_, err := (&Deployer{Engine: engine, Runner: &fakeRunner{}}).Deploy(context.Background(), Options{
		ProjectDir: dir,
		Dockerfile: "nope/Dockerfile",
	})
	if !errors.Is(err, ErrDockerfileNotFound) {
		t.Fatalf("Deploy() error = %v, want ErrDockerfileNotFound", err)
	}
	if len(engine.builds) != 0 {
		t.Error("nothing should be built")
	}
}

func TestDeploy_BuildFailure(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "proj", map[string]string{})
	runner := &fakeRunner{}
	engine := &fakeEngine{buildErr: errors.New("exit status 1")}

	res, err := (&Deployer{Engine: engine, Runner: runner}).Deploy(context.Background(), Options{ProjectDir: dir})
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("Deploy() error = %v, want ErrBuild", err)
	}
	if !strings.Contains(err.Error(), res.BuildLog) {
		t.Errorf("error should point at the build log: %v", err)
	}
	if len(runner.commands) != 0 {
		t.Error("cloud CLI must not run after a failed build")
	}
	if got := readFile(t, res.BuildLog); !strings.Contains(got, "STEP 1/2") {
		t.Errorf("build output should be kept on failure: %q", got)
	}
}

func TestDeploy_CloudFailure(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "proj", map[string]string{})
	runner := &fakeRunner{output: "ERROR: permission denied\n", err: errors.New("exit status 1")}

	res, err := (&Deployer{Engine: &fakeEngine{}, Runner: runner}).Deploy(context.Background(), Options{ProjectDir: dir})
	if !errors.Is(err, ErrCloudDeploy) {
		t.Fatalf("Deploy() error = %v, want ErrCloudDeploy", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepCloud || stepErr.LogPath != res.DeployLog {
		t.Errorf("unexpected step error %v", err)
	}
	if !res.Built || res.Deployed {
		t.Errorf("unexpected flags %+v", res)
	}
	if got := readFile(t, res.DeployLog); !strings.Contains(got, "permission denied") {
		t.Errorf("deploy log = %q", got)
	}
}

func TestDeploy_PushRetriesTransientErrors(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "proj", map[string]string{})
	engine := &fakeEngine{pushErrs: []error{errors.New("dial tcp: connection refused")}}
	d := &Deployer{Engine: engine, Runner: &fakeRunner{}, PushBackoff: time.Millisecond}

	res, err := d.Deploy(context.Background(), Options{ProjectDir: dir, Push: true, SkipCloud: true})
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if engine.pushes != 2 || !res.Pushed {
		t.Errorf("pushes = %d, Pushed = %v", engine.pushes, res.Pushed)
	}
	if got := readFile(t, res.BuildLog); strings.Count(got, "pushing") != 2 {
		t.Errorf("push output should be appended to the build log: %q", got)
	}
}

func TestDeploy_PushPermanentError(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "proj", map[string]string{})
	engine := &fakeEngine{pushErrs: []error{errors.New("denied: access forbidden")}}
	d := &Deployer{Engine: engine, Runner: &fakeRunner{}, PushBackoff: time.Millisecond}

	_, err := d.Deploy(context.Background(), Options{ProjectDir: dir, Push: true})
	if !errors.Is(err, ErrPush) {
		t.Fatalf("Deploy() error = %v, want ErrPush", err)
	}
	if engine.pushes != 1 {
		t.Errorf("permanent errors must not be retried, pushes = %d", engine.pushes)
	}
}

func TestDeploy_SkipBuild(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "proj", map[string]string{})

	engine := &fakeEngine{haveImages: map[string]bool{"proj:latest": true}}
	res, err := (&Deployer{Engine: engine, Runner: &fakeRunner{}}).Deploy(context.Background(), Options{ProjectDir: dir, SkipBuild: true})
	if err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if res.Built || len(engine.builds) != 0 || !res.Deployed {
		t.Errorf("unexpected result %+v", res)
	}

	_, err = (&Deployer{Engine: &fakeEngine{}, Runner: &fakeRunner{}}).Deploy(context.Background(), Options{ProjectDir: dir, SkipBuild: true})
	if !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Deploy() error = %v, want ErrImageNotFound", err)
	}
}

func TestExpandArgs(t *testing.T) {
	t.Parallel()
	d := &Deployer{Getenv: func(name string) string {
		return map[string]string{"GCP_PROJECT": "acme", "IMAGE": "from-env"}[name]
	}}
	res := &Result{Image: "app:1", Service: "app", ProjectDir: "/src/app"}

	got, err := d.expandArgs([]string{
		"run", "deploy", "$SERVICE",
		"--image=${IMAGE}",
		"--project", "$GCP_PROJECT",
		"--region", "${REGION:-us-central1}",
		"--source", "$PROJECT_DIR",
		"literal $(not run)",
	}, res)
	if err == nil {
		t.Fatalf("command substitution should be rejected, got %v", got)
	}

	got, err = d.expandArgs([]string{
		"run", "deploy", "$SERVICE",
		"--image=${IMAGE}",
		"--project", "$GCP_PROJECT",
		"--region", "${REGION:-us-central1}",
		"--source", "$PROJECT_DIR",
	}, res)
	if err != nil {
		t.Fatalf("expandArgs() error = %v", err)
	}
	want := []string{
		"run", "deploy", "app",
		"--image=app:1",
		"--project", "acme",
		"--region", "us-central1",
		"--source", "/src/app",
	}
	if !slices.Equal(got, want) {
		t.Errorf("expandArgs() = %v, want %v", got, want)
	}

	if _, err := d.expandArgs([]string{"${unterminated"}, res); err == nil {
		t.Error("invalid syntax should fail")
	}
}

func TestDeploy_DeployerDockerfileFallback(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "proj", map[string]string{"ci/Dockerfile": "FROM scratch"})
	engine := &fakeEngine{}
	d := &Deployer{Engine: engine, Runner: &fakeRunner{}, Dockerfile: "ci/Dockerfile"}

	if _, err := d.Deploy(context.Background(), Options{ProjectDir: dir, SkipCloud: true}); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if got := engine.builds[0].Dockerfile; got != "ci/Dockerfile" {
		t.Errorf("Dockerfile = %q, want the deployer fallback", got)
	}

	withManifest := newProject(t, "proj", map[string]string{
		manifest.FileName: "[deploy]\ndockerfile = \"Dockerfile\"\n",
		"ci/Dockerfile":   "FROM scratch",
	})
	engine = &fakeEngine{}
	d.Engine = engine
	if _, err := d.Deploy(context.Background(), Options{ProjectDir: withManifest, SkipCloud: true}); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	if got := engine.builds[0].Dockerfile; got != "Dockerfile" {
		t.Errorf("manifest should win over the deployer fallback, got %q", got)
	}
}

func TestIgnoreLogs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing *string
		want     string
	}{
		{"missing file", nil, BuildLogName + "\n" + DeployLogName + "\n"},
		{"keeps entries", ptr("node_modules\n"), "node_modules\n" + BuildLogName + "\n" + DeployLogName + "\n"},
		{"no trailing newline", ptr("*.tmp"), "*.tmp\n" + BuildLogName + "\n" + DeployLogName + "\n"},
		{"one present", ptr("/" + BuildLogName + "\n"), "/" + BuildLogName + "\n" + DeployLogName + "\n"},
		{"all present", ptr(DeployLogName + "\n" + BuildLogName + "\n"), DeployLogName + "\n" + BuildLogName + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			path := filepath.Join(dir, DockerIgnoreName)
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			for range 2 {
				if err := ignoreLogs(dir); err != nil {
					t.Fatalf("ignoreLogs() error = %v", err)
				}
			}
			if got := readFile(t, path); got != tt.want {
				t.Errorf("%s = %q, want %q", DockerIgnoreName, got, tt.want)
			}
		})
	}
}

func TestDeploy_LogsIgnoredByBuildContext(t *testing.T) {
	t.Parallel()
	dir := newProject(t, "proj", map[string]string{".dockerignore": ".git\n"})

	if _, err := (&Deployer{Engine: &fakeEngine{}, Runner: &fakeRunner{}}).Deploy(context.Background(), Options{ProjectDir: dir}); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	got := readFile(t, filepath.Join(dir, DockerIgnoreName))
	for _, want := range []string{".git", BuildLogName, DeployLogName} {
		if !slices.Contains(strings.Split(got, "\n"), want) {
			t.Errorf("%s = %q, missing %s", DockerIgnoreName, got, want)
		}
	}
}

func ptr(s string) *string { return &s }
