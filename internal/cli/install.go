package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/pkginstall/internal/installer"
)

var (
	installForce bool
	installName  string
)

var installCmd = &cobra.Command{
	Use:   "install <archive.zip>",
	Short: "Install a local package archive",
	Long: `Extract a package archive and swap it into the packages directory.

The archive is installed under the name in its package.json unless --name is
given. Without --force the install is skipped when the installed version is not
older than the archive's.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "Install even when the installed version is newer or equal")
	installCmd.Flags().StringVar(&installName, "name", "", "Destination directory name inside the packages folder")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	archive, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	in := installer.New(s.layout, installer.WithLogger(s.logger), installer.WithTranslator(s.tr))
	res, err := in.Install(cmd.Context(), archive, installer.Options{Name: installName, CheckVersion: !installForce})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch res.Outcome {
	case installer.OutcomeInstalled:
		if res.PreviousVersion != "" {
			fmt.Fprintf(out, "✓ Installed %s %s (was %s)\n", res.Name, dash(res.Version), res.PreviousVersion)
		} else {
			fmt.Fprintf(out, "✓ Installed %s %s\n", res.Name, dash(res.Version))
		}
	case installer.OutcomeUpToDate:
		fmt.Fprintf(out, "%s %s is already installed (use --force to reinstall)\n", res.Name, res.PreviousVersion)
	case installer.OutcomeManagedSkip:
		fmt.Fprintf(out, "%s is managed by the environment, not replaced\n", res.Name)
	}
	return nil
}
