// Package release tags the current commit with the version recorded in the
// release manifest and pushes the tag, once per version.
package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"common-library/internal/application/port/output"

	"gopkg.in/yaml.v3"
)

var ErrInvalidManifest = errors.New("invalid release manifest")

type Manifest struct {
	Version string `yaml:"version"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}
	m.Version = strings.TrimSpace(m.Version)
	if m.Version == "" {
		return nil, fmt.Errorf("%w: %s: version is empty", ErrInvalidManifest, path)
	}
	return &m, nil
}

// Git runs a git subcommand and returns its standard output.
type Git interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecGit shells out to the git binary in Dir.
type ExecGit struct {
	Dir string
}

func (g ExecGit) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

type Tagger struct {
	git    Git
	remote string
	log    output.LoggerPort
}

func NewTagger(git Git, remote string, log output.LoggerPort) *Tagger {
	if remote == "" {
		remote = "origin"
	}
	return &Tagger{git: git, remote: remote, log: log}
}

// Ensure creates and pushes tag version unless it already exists. It
// reports whether a tag was created.
func (t *Tagger) Ensure(ctx context.Context, version string) (bool, error) {
	out, err := t.git.Run(ctx, "tag")
	if err != nil {
		return false, err
	}

	if hasTag(out, version) {
		t.log.Debug("tag already exists", "version", version)
		return false, nil
	}

	if _, err := t.git.Run(ctx, "tag", version); err != nil {
		return false, err
	}
	if _, err := t.git.Run(ctx, "push", t.remote, version); err != nil {
		return true, err
	}

	t.log.Info("tag created", "version", version, "remote", t.remote)
	return true, nil
}

// hasTag matches whole lines of `git tag` output, so v1.2 does not match
// v1.2.1.
func hasTag(list, version string) bool {
	for _, line := range strings.Split(list, "\n") {
		if strings.TrimSpace(line) == version {
			return true
		}
	}
	return false
}
