package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/thinkscotty/wikichat/internal/updater"
)

var flagCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Install the latest release",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&flagCheckOnly, "check", false, "only report whether an update is available")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "wikichat %s: checking for updates...\n", version)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	u := updater.New("")
	rel, err := u.Check(ctx, version)
	if errors.Is(err, updater.ErrUpToDate) {
		fmt.Fprintln(out, "Already running the latest version.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}

	fmt.Fprintf(out, "Update available: %s -> %s (%s, %s)\n", version, rel.Version, rel.AssetName, updater.FormatBytes(rel.AssetSize))
	if flagCheckOnly {
		fmt.Fprintln(out, rel.HTMLURL)
		return nil
	}

	if err := u.Install(ctx, rel, ""); err != nil {
		return fmt.Errorf("installation failed: %w", err)
	}
	fmt.Fprintf(out, "Updated to %s. Restart any running wikichat server to use it.\n", rel.Version)
	return nil
}
