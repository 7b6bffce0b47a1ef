// SPDX-License-Identifier: MPL-2.0

// Package gitsource fetches remote template repositories into a local cache
// directory so they can be generated from like any local template.
package gitsource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// cacheKeyLen is the number of hex characters of the URL digest used as the
// clone directory prefix.
const cacheKeyLen = 16

// ErrClone is the sentinel error wrapped by CloneError.
var ErrClone = errors.New("failed to clone template repository")

// scpLike matches "user@host:path" identifiers that carry no scheme.
var scpLike = regexp.MustCompile(`^[\w.-]+@[\w.-]+:`)

type (
	// Cloner clones remote templates into CacheDir.
	Cloner struct {
		// CacheDir is the directory clones are created in.
		CacheDir string

		getenv  func(string) string
		homeDir func() (string, error)
	}

	// CloneError is returned when a repository cannot be cloned.
	CloneError struct {
		URL string
		Err error
	}
)

func (e *CloneError) Error() string {
	return fmt.Sprintf("failed to clone %s: %v", e.URL, e.Err)
}

func (e *CloneError) Unwrap() []error { return []error{ErrClone, e.Err} }

// NewCloner creates a Cloner. An empty cacheDir selects DefaultCacheDir.
func NewCloner(cacheDir string) *Cloner {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	return &Cloner{
		CacheDir: cacheDir,
		getenv:   os.Getenv,
		homeDir:  os.UserHomeDir,
	}
}

// DefaultCacheDir returns the per-user clone cache, falling back to the
// system temp directory when no user cache directory is available.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "temploy", "templates")
}

// IsRemote reports whether a template argument names a remote repository
// rather than a local directory.
func IsRemote(arg string) bool {
	for _, scheme := range []string{"http://", "https://", "ssh://", "git://", "file://"} {
		if strings.HasPrefix(arg, scheme) {
			return true
		}
	}
	return scpLike.MatchString(arg) || strings.HasSuffix(arg, ".git")
}

// Clone shallow-clones url into a fresh directory under CacheDir, prefixed
// with a digest of the URL, and returns its path. Concurrent clones of the
// same URL never share a directory. Callers remove the clone with Remove once
// they are done.
func (c *Cloner) Clone(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		return "", &CloneError{URL: url, Err: fmt.Errorf("failed to create cache directory: %w", err)}
	}
	dest, err := os.MkdirTemp(c.CacheDir, cacheKey(url)+"-*")
	if err != nil {
		return "", &CloneError{URL: url, Err: fmt.Errorf("failed to create clone directory: %w", err)}
	}

	opts := &git.CloneOptions{
		URL:          url,
		Auth:         c.authFor(url),
		SingleBranch: true,
	}
	// local repositories do not support shallow fetches
	if !strings.HasPrefix(url, "file://") {
		opts.Depth = 1
	}

	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		// Clean up failed attempt (best-effort)
		_ = os.RemoveAll(dest)
		return "", &CloneError{URL: url, Err: err}
	}

	return dest, nil
}

// Remove deletes a clone created by Clone. Paths outside CacheDir are refused.
func (c *Cloner) Remove(dir string) error {
	rel, err := filepath.Rel(c.CacheDir, dir)
	if err != nil || !filepath.IsLocal(rel) || rel == "." {
		return fmt.Errorf("refusing to remove %s: not inside %s", dir, c.CacheDir)
	}
	return os.RemoveAll(dir)
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:cacheKeyLen]
}

// authFor picks credentials matching the URL's transport. SSH URLs use the
// first usable key in ~/.ssh, HTTP(S) URLs use a token from the environment.
// nil means anonymous access.
func (c *Cloner) authFor(url string) transport.AuthMethod {
	switch {
	case strings.HasPrefix(url, "ssh://") || scpLike.MatchString(url):
		return c.sshAuth()
	case strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://"):
		return c.httpAuth()
	default:
		return nil
	}
}

func (c *Cloner) sshAuth() transport.AuthMethod {
	homeDir, err := c.homeDir()
	if err != nil {
		return nil
	}

	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(homeDir, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}

	return nil
}

func (c *Cloner) httpAuth() transport.AuthMethod {
	tokens := []struct{ env, user string }{
		{"GITHUB_TOKEN", "x-access-token"},
		{"GITLAB_TOKEN", "gitlab-ci-token"},
		{"GIT_TOKEN", "git"},
	}
	for _, tok := range tokens {
		if token := c.getenv(tok.env); token != "" {
			return &http.BasicAuth{Username: tok.user, Password: token}
		}
	}
	return nil
}
