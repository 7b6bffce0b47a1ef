// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temploy/temploy/pkg/manifest"

	"github.com/charmbracelet/log"
)

func newTemplate(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	writeTree(t, root, files)
	return root
}

func TestGenerate_ExplicitName(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "test-data", map[string]string{
		"a.txt":       "alpha",
		"sub/b.txt":   "beta",
		".git/config": "[core]",
	})
	out := filepath.Join(t.TempDir(), "out")

	g := NewGenerator(t.TempDir(), nil)
	summary, err := g.Generate(context.Background(), GenerationRequest{
		TemplateRoot: tmpl,
		TargetParent: Some(out),
		ExplicitName: Some("demo"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if want := filepath.Join(canonical(t, out), "demo"); summary.Destination != want {
		t.Errorf("Destination = %q, want %q", summary.Destination, want)
	}
	if summary.Name != "demo" || summary.Files != 2 || summary.Directories != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.Bytes != int64(len("alpha")+len("beta")) {
		t.Errorf("Bytes = %d", summary.Bytes)
	}

	got := snapshot(t, summary.Destination)
	want := map[string]string{"a.txt": "alpha", "sub/": "", "sub/b.txt": "beta"}
	assertTree(t, got, want)
}

func TestGenerate_DefaultNameFromTemplate(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "test-data", map[string]string{"a.txt": "a"})
	wd := t.TempDir()

	summary, err := NewGenerator(wd, nil).Generate(context.Background(), GenerationRequest{TemplateRoot: tmpl})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if summary.Name != "test-data-clone" {
		t.Errorf("Name = %q, want test-data-clone", summary.Name)
	}
	if want := filepath.Join(canonical(t, wd), "test-data-clone"); summary.Destination != want {
		t.Errorf("Destination = %q, want %q", summary.Destination, want)
	}
}

func TestGenerate_NameFromSourceIdentifier(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "1f2e3d", map[string]string{"README.md": "hi"})
	parent := t.TempDir()

	summary, err := NewGenerator("", nil).Generate(context.Background(), GenerationRequest{
		TemplateRoot:     tmpl,
		TargetParent:     Some(parent),
		SourceIdentifier: Some("git@host:org/my-proj.git"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if want := filepath.Join(canonical(t, parent), "my-proj-clone"); summary.Destination != want {
		t.Errorf("Destination = %q, want %q", summary.Destination, want)
	}
}

func TestGenerate_InvalidTemplatePath(t *testing.T) {
	t.Parallel()
	wd := t.TempDir()
	missing := filepath.Join(t.TempDir(), "not-a-dir")

	for _, explicit := range []Optional[string]{None[string](), Some("demo")} {
		summary, err := NewGenerator(wd, nil).Generate(context.Background(), GenerationRequest{
			TemplateRoot: missing,
			ExplicitName: explicit,
		})
		if !errors.Is(err, ErrInvalidTemplatePath) {
			t.Fatalf("Generate() error = %v, want ErrInvalidTemplatePath", err)
		}
		if summary != nil {
			t.Errorf("summary should be nil, got %+v", summary)
		}
		if !strings.Contains(err.Error(), missing) {
			t.Errorf("error %q does not mention %s", err, missing)
		}
	}

	if entries, _ := os.ReadDir(wd); len(entries) != 0 {
		t.Errorf("working directory should be untouched, has %d entries", len(entries))
	}
}

func TestGenerate_DestinationExists(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "tmpl", map[string]string{"a.txt": "template"})
	parent := t.TempDir()
	writeTree(t, parent, map[string]string{"demo/a.txt": "mine"})
	templateBefore := snapshot(t, tmpl)

	_, err := NewGenerator("", nil).Generate(context.Background(), GenerationRequest{
		TemplateRoot: tmpl,
		TargetParent: Some(parent),
		ExplicitName: Some("demo"),
	})
	if !errors.Is(err, ErrDirectoryAlreadyExists) {
		t.Fatalf("Generate() error = %v, want ErrDirectoryAlreadyExists", err)
	}

	assertTree(t, snapshot(t, parent), map[string]string{"demo/": "", "demo/a.txt": "mine"})
	assertTree(t, snapshot(t, tmpl), templateBefore)
}

func TestGenerate_RoundTrip(t *testing.T) {
	t.Parallel()
	files := map[string]string{
		"README.md":               "# hello\n",
		"cmd/app/main.go":         "package main\n",
		"internal/a/b/c/deep.txt": strings.Repeat("x", 10000),
		"empty.txt":               "",
		"bin/data.bin":            "\x00\x01\x02\xff",
		"nested/.git/objects/aa":  "obj",
		".git/HEAD":               "ref: refs/heads/main",
	}
	tmpl := newTemplate(t, "tmpl", files)
	templateBefore := snapshot(t, tmpl)

	summary, err := NewGenerator(t.TempDir(), nil).Generate(context.Background(), GenerationRequest{
		TemplateRoot: tmpl,
		ExplicitName: Some("copy"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := map[string]string{}
	for rel, content := range templateBefore {
		if !IsExcluded(filepath.FromSlash(strings.TrimSuffix(rel, "/")), nil) {
			want[rel] = content
		}
	}
	assertTree(t, snapshot(t, summary.Destination), want)
	assertTree(t, snapshot(t, tmpl), templateBefore)
}

func TestGenerate_ManifestExcludes(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "tmpl", map[string]string{
		manifest.FileName: `exclude = ["**/*.log", "scratch"]`,
		"main.go":         "package main",
		"logs/run.log":    "x",
		"scratch/tmp.txt": "x",
	})

	summary, err := NewGenerator(t.TempDir(), nil).Generate(context.Background(), GenerationRequest{
		TemplateRoot: tmpl,
		ExplicitName: Some("app"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	assertTree(t, snapshot(t, summary.Destination), map[string]string{
		manifest.FileName: `exclude = ["**/*.log", "scratch"]`,
		"main.go":         "package main",
		"logs/":           "",
	})
}

func TestGenerate_InvalidManifest(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "tmpl", map[string]string{manifest.FileName: `unknown_key = 1`})
	wd := t.TempDir()

	_, err := NewGenerator(wd, nil).Generate(context.Background(), GenerationRequest{
		TemplateRoot: tmpl,
		ExplicitName: Some("app"),
	})
	if !errors.Is(err, manifest.ErrParse) {
		t.Fatalf("Generate() error = %v, want manifest.ErrParse", err)
	}
	if entries, _ := os.ReadDir(wd); len(entries) != 0 {
		t.Error("no destination should be created for a broken manifest")
	}
}

func TestGenerate_CancelledBeforeStart(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "tmpl", map[string]string{"a.txt": "a", "b.txt": "b"})
	wd := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewGenerator(wd, nil).Generate(ctx, GenerationRequest{
		TemplateRoot: tmpl,
		ExplicitName: Some("app"),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if summary != nil {
		t.Errorf("summary should be nil, got %+v", summary)
	}
	if entries, _ := os.ReadDir(wd); len(entries) != 0 {
		t.Errorf("nothing should be created for a cancelled run, found %d entries", len(entries))
	}
}

// cancelAfterCtx reports cancellation once Err has been called n times.
type cancelAfterCtx struct {
	context.Context
	n int
}

func (c *cancelAfterCtx) Err() error {
	if c.n <= 0 {
		return context.Canceled
	}
	c.n--
	return nil
}

func TestGenerate_CancelledDuringCopy(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "tmpl", map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})

	// one check before allocation, then one per entry: stop before b.txt
	ctx := &cancelAfterCtx{Context: context.Background(), n: 2}
	summary, err := NewGenerator(t.TempDir(), nil).Generate(ctx, GenerationRequest{
		TemplateRoot: tmpl,
		ExplicitName: Some("app"),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if summary == nil || summary.Files != 1 {
		t.Fatalf("expected partial summary with one file, got %+v", summary)
	}
	assertTree(t, snapshot(t, summary.Destination), map[string]string{"a.txt": "a"})
}

func TestGenerate_DestinationInsideTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		wd     func(tmpl string) string
		parent func(tmpl string) Optional[string]
	}{
		{
			name:   "working directory is the template",
			wd:     func(tmpl string) string { return tmpl },
			parent: func(string) Optional[string] { return None[string]() },
		},
		{
			name:   "target directory is a template subdirectory",
			wd:     func(string) string { return "" },
			parent: func(tmpl string) Optional[string] { return Some(filepath.Join(tmpl, "sub")) },
		},
		{
			name:   "target directory does not exist yet",
			wd:     func(string) string { return "" },
			parent: func(tmpl string) Optional[string] { return Some(filepath.Join(tmpl, "new", "deeper")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tmpl := newTemplate(t, "tmpl", map[string]string{
				"a/one.txt": "1",
				"sub/b.txt": "b",
				"z.txt":     "z",
			})
			before := snapshot(t, tmpl)

			summary, err := NewGenerator(tt.wd(tmpl), nil).Generate(context.Background(), GenerationRequest{
				TemplateRoot: tmpl,
				TargetParent: tt.parent(tmpl),
			})
			if !errors.Is(err, ErrDestinationInsideTemplate) {
				t.Fatalf("Generate() error = %v, want ErrDestinationInsideTemplate", err)
			}
			if summary != nil {
				t.Errorf("summary should be nil, got %+v", summary)
			}

			after := snapshot(t, tmpl)
			if len(after) != len(before) {
				t.Errorf("template modified: before %v, after %v", before, after)
			}
			assertTree(t, after, before)
		})
	}
}

func TestGenerate_SiblingSharingTemplatePrefix(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	writeTree(t, base, map[string]string{"tmpl/a.txt": "a"})

	// a sibling whose name shares the template's prefix is not inside it
	summary, err := NewGenerator(base, nil).Generate(context.Background(), GenerationRequest{
		TemplateRoot: filepath.Join(base, "tmpl"),
		ExplicitName: Some("tmpl2"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if summary.Name != "tmpl2" {
		t.Errorf("Name = %q, want tmpl2", summary.Name)
	}
}

func TestGenerate_DigitsKeptInDerivedName(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "app2", map[string]string{"a.txt": "a"})
	wd := t.TempDir()

	summary, err := NewGenerator(wd, nil).Generate(context.Background(), GenerationRequest{TemplateRoot: tmpl})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if summary.Name != "app2-clone" {
		t.Errorf("Name = %q, want app2-clone", summary.Name)
	}
	if want := filepath.Join(canonical(t, wd), "app2-clone"); summary.Destination != want {
		t.Errorf("Destination = %q, want %q", summary.Destination, want)
	}
}

func TestGenerate_Logging(t *testing.T) {
	t.Parallel()
	tmpl := newTemplate(t, "tmpl", map[string]string{"a.txt": "a"})

	var buf strings.Builder
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	if _, err := NewGenerator(t.TempDir(), logger).Generate(context.Background(), GenerationRequest{
		TemplateRoot: tmpl,
		ExplicitName: Some("app"),
	}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"generating project", "materialized", "project generated"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func assertTree(t *testing.T, got, want map[string]string) {
	t.Helper()
	for rel, content := range want {
		g, ok := got[rel]
		if !ok {
			t.Errorf("missing %s", rel)
			continue
		}
		if g != content {
			t.Errorf("%s = %q, want %q", rel, g, content)
		}
	}
	for rel := range got {
		if _, ok := want[rel]; !ok {
			t.Errorf("unexpected %s", rel)
		}
	}
}
