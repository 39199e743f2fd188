package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/pkginstall/internal/branding"
	"github.com/agentx-labs/pkginstall/internal/config"
)

var (
	initForce    bool
	initRegistry string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file in the project",
	Long:  `Write ` + branding.ConfigFile() + ` with the default settings to the project root.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
	initCmd.Flags().StringVar(&initRegistry, "registry", "", "Registry URL to write into the config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	path := configPath(root)

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	cfg.RegistryURL = initRegistry
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	layout, err := cfg.Layout(root)
	if err != nil {
		return err
	}
	if err := layout.Ensure(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}
