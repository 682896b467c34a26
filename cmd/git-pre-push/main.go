// Command git-pre-push tags the current commit with the version in the
// release manifest and pushes the tag, unless that tag already exists.
// Install it as .git/hooks/pre-push or run it by hand before a release.
package main

import (
	"context"
	"fmt"
	"os"

	"common-library/internal/infrastructure/logger"
	"common-library/internal/infrastructure/release"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		manifestPath string
		remote       string
	)

	cmd := &cobra.Command{
		Use:           "git-pre-push",
		Short:         "Tag and push the manifest version if it is not tagged yet",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), manifestPath, remote, release.ExecGit{})
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "release.yaml", "Release manifest holding the version")
	cmd.Flags().StringVar(&remote, "remote", "origin", "Remote the tag is pushed to")

	return cmd
}

func run(ctx context.Context, manifestPath, remote string, git release.Git) error {
	log, err := logger.NewLoggerAdapter(logger.DefaultConfig())
	if err != nil {
		return err
	}
	defer log.Close()

	m, err := release.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	created, err := release.NewTagger(git, remote, log).Ensure(ctx, m.Version)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Added tag: %s\n", m.Version)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
