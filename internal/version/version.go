// Package version resolves the version string reported by the CLI. Release
// builds override Version (and optionally Commit) through -ldflags; any
// other build gets a suffix derived from the git checkout it was built in.
package version

import (
	"os/exec"
	"strings"
)

var (
	Version = "0.1.0"
	Commit  = ""
)

// Resolve returns the full version string. Inside a git repository whose
// HEAD is not on a release tag, a describe-derived suffix is appended; when
// git is unavailable the linker-set commit hash is used instead.
func Resolve() string {
	return resolveVersion(Version, Commit, runGit)
}

func resolveVersion(base, commit string, git func(...string) (string, error)) string {
	if base == "" {
		base = "0.0.0"
	}

	if _, err := git("rev-parse", "--git-dir"); err != nil {
		if commit != "" {
			return base + "+" + shortHash(commit)
		}
		return base
	}

	if suffix := gitSuffix(base, git); suffix != "" {
		return base + "-" + suffix
	}
	return base
}

func gitSuffix(base string, git func(...string) (string, error)) string {
	if _, err := git("describe", "--tags", "--exact-match"); err == nil {
		return ""
	}

	desc, err := git("describe", "--tags", "--dirty", "--always")
	if err != nil {
		return ""
	}

	prefix := "v" + base + "-"
	if strings.HasPrefix(desc, prefix) {
		return strings.TrimPrefix(desc, prefix)
	}

	return desc
}

func shortHash(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}

func runGit(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
