package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeGit(exactMatch string, describe string, exactErr, descErr error) func(...string) (string, error) {
	return func(args ...string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("no args")
		}
		switch args[0] {
		case "rev-parse":
			return ".git", nil
		case "describe":
			for _, a := range args {
				if a == "--exact-match" {
					return exactMatch, exactErr
				}
			}
			return describe, descErr
		default:
			return "", fmt.Errorf("unexpected git subcommand %q", args[0])
		}
	}
}

func fakeGitNotARepo() func(...string) (string, error) {
	return func(args ...string) (string, error) {
		return "", fmt.Errorf("not a git repository")
	}
}

func TestResolveVersion_TaggedRelease(t *testing.T) {
	t.Parallel()
	git := fakeGit("v0.1.0", "", nil, nil)
	require.Equal(t, "0.1.0", resolveVersion("0.1.0", "", git))
}

func TestResolveVersion_CommitsAfterTag(t *testing.T) {
	t.Parallel()
	git := fakeGit("", "v0.1.0-3-gabcdef", fmt.Errorf("no tag"), nil)
	require.Equal(t, "0.1.0-3-gabcdef", resolveVersion("0.1.0", "", git))
}

func TestResolveVersion_DirtyWorkingTree(t *testing.T) {
	t.Parallel()
	git := fakeGit("", "v0.1.0-3-gabcdef-dirty", fmt.Errorf("no tag"), nil)
	require.Equal(t, "0.1.0-3-gabcdef-dirty", resolveVersion("0.1.0", "", git))
}

func TestResolveVersion_NoTags(t *testing.T) {
	t.Parallel()
	git := fakeGit("", "abcdef", fmt.Errorf("no tag"), nil)
	require.Equal(t, "0.1.0-abcdef", resolveVersion("0.1.0", "", git))
}

func TestResolveVersion_NotAGitRepoWithoutCommit(t *testing.T) {
	t.Parallel()
	require.Equal(t, "0.1.0", resolveVersion("0.1.0", "", fakeGitNotARepo()))
}

func TestResolveVersion_NotAGitRepoWithLinkerCommit(t *testing.T) {
	t.Parallel()
	got := resolveVersion("0.1.0", "0123456789abcdef0123", fakeGitNotARepo())
	require.Equal(t, "0.1.0+0123456789ab", got)
}

func TestResolveVersion_EmptyBaseFallsBackToZero(t *testing.T) {
	t.Parallel()
	require.Equal(t, "0.0.0", resolveVersion("", "", fakeGitNotARepo()))
}

func TestResolveVersion_DescribeFails(t *testing.T) {
	t.Parallel()
	git := fakeGit("", "", fmt.Errorf("no tag"), fmt.Errorf("describe failed"))
	require.Equal(t, "0.1.0", resolveVersion("0.1.0", "", git))
}
