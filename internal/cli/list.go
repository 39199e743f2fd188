package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/pkginstall/internal/manifest"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long:  `List every directory in the packages folder with the version from its package.json.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an installed package for display.
type listEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
	Error   string `json:"error,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	entries, err := listPackages(s.layout.PackagesDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No packages installed yet.")
		return nil
	}

	if listJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, dash(e.Version))
	}
	return w.Flush()
}

// listPackages probes every directory under dir.
func listPackages(dir string) ([]listEntry, error) {
	dirents, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var entries []listEntry
	for _, d := range dirents {
		// Dot directories are parked installs awaiting cleanup.
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, d.Name())
		e := listEntry{Name: d.Name(), Path: path}
		probe, err := manifest.ProbeDir(path)
		if err != nil {
			e.Error = err.Error()
		}
		e.Version = probe.Version
		entries = append(entries, e)
	}
	return entries, nil
}
