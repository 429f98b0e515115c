package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbckr/stamp/internal/apperr"
	"github.com/tbckr/stamp/internal/manifest"
	"github.com/tbckr/stamp/internal/semverx"
	"github.com/tbckr/stamp/internal/stamp"
)

func newBumpCmd(d *deps) *cobra.Command {
	var preID string
	cmd := &cobra.Command{
		Use:   "bump <major|minor|patch|prerelease>",
		Short: "Stamp the next semantic version after the manifest's current one",
		Long: `Bump reads the current version from the first target's manifest, computes the
next semantic version and stamps it into every target.

  patch       1.2.3 → 1.2.4
  minor       1.2.3 → 1.3.0
  major       1.2.3 → 2.0.0
  prerelease  1.2.3 → 1.2.4-beta.0, 1.2.4-beta.0 → 1.2.4-beta.1`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: semverx.Parts(),
		GroupID:   "release",
		RunE: func(cmd *cobra.Command, args []string) error {
			part, err := semverx.ParsePart(args[0])
			if err != nil {
				return err
			}
			targets, err := d.targets()
			if err != nil {
				return err
			}
			m, err := manifest.Read(d.fs, targets[0].Manifest)
			if err != nil {
				return err
			}
			if m.Version == "" {
				return fmt.Errorf("%w: %s has no version to bump", apperr.ErrManifest, targets[0].Manifest)
			}
			next, err := semverx.Next(m.Version, part, preID)
			if err != nil {
				return err
			}
			d.logger.Debug("computed next version", "current", m.Version, "part", part, "next", next)
			return runStamp(cmd, d, next)
		},
	}
	cmd.Flags().StringVar(&preID, "pre", "beta", "prerelease identifier used by the prerelease part")
	return cmd
}

func newVerifyCmd(d *deps) *cobra.Command {
	var expect string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that each manifest and version file carry the same version",
		Long: `Verify reads every target's manifest and version file and fails when they
disagree. With --expect, both must also equal the given version. Suitable as a
release pipeline gate.`,
		Args:    cobra.NoArgs,
		GroupID: "release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets, err := d.targets()
			if err != nil {
				return err
			}
			statuses, verifyErr := d.stamper.VerifyAll(cmd.Context(), targets, expect, d.cfg.Concurrency)
			if err := writeResult(cmd.OutOrStdout(), d, stamp.Statuses(statuses)); err != nil {
				return err
			}
			return verifyErr
		},
	}
	cmd.Flags().StringVar(&expect, "expect", "", "version both artifacts must carry")
	return cmd
}

func newShowCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"status"},
		Short:   "Print the versions currently found in each target",
		Args:    cobra.NoArgs,
		GroupID: "release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets, err := d.targets()
			if err != nil {
				return err
			}
			statuses, showErr := d.stamper.CurrentAll(cmd.Context(), targets, d.cfg.Concurrency)
			if err := writeResult(cmd.OutOrStdout(), d, stamp.Statuses(statuses)); err != nil {
				return err
			}
			return showErr
		},
	}
}
