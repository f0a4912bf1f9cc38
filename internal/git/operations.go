// Package git reads the revision a project is checked out at.
package git

import (
	"os/exec"
	"strings"
)

// Operations reads repository state. Tests can substitute their own.
type Operations interface {
	// CurrentBranch returns the checked-out branch, "detached-{short-hash}"
	// for a detached HEAD, or "" when dir is not inside a repository.
	CurrentBranch(dir string) string
}

// gitOps is the real implementation using exec.Command.
type gitOps struct{}

// NewOperations returns the default git operations implementation.
func NewOperations() Operations {
	return &gitOps{}
}

func (g *gitOps) CurrentBranch(dir string) string {
	if branch, err := gitOutput(dir, "branch", "--show-current"); err == nil && branch != "" {
		return branch
	}
	// Might be detached HEAD
	hash, err := gitOutput(dir, "rev-parse", "--short", "HEAD")
	if err != nil || hash == "" {
		return ""
	}
	return "detached-" + hash
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
