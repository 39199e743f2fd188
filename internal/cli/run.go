package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/pkginstall/internal/fetch"
	"github.com/agentx-labs/pkginstall/internal/installer"
	"github.com/agentx-labs/pkginstall/internal/orchestrator"
)

var runNoProgress bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Install dropped archives and configured registry packages",
	Long: `Run one installation pass over the project:

  1. Install every *.zip in the zip packages folder.
  2. Fetch the registry and install each configured package whose installed
     version is older than the resolved one (or every one marked force).
  3. Purge the cache and, outside managed environments, delete the folders
     listed under delete_folders when delete_self is set.

A failed package does not stop the run. The exit status is non-zero when any
package failed.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "Do not render download progress bars")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	fetchOpts := []fetch.Option{fetch.WithLogger(s.logger)}
	if !runNoProgress {
		fetchOpts = append(fetchOpts, fetch.WithProgress(cmd.ErrOrStderr()))
	}

	f := fetch.New(fetchOpts...)
	o := orchestrator.New(s.cfg, s.layout, f,
		installer.New(s.layout, installer.WithLogger(s.logger), installer.WithTranslator(s.tr)),
		orchestrator.WithLogger(s.logger),
		orchestrator.WithTranslator(s.tr),
	)

	report, err := o.Run(cmd.Context())
	if report != nil {
		if perr := printReport(cmd.OutOrStdout(), report); perr != nil {
			return perr
		}
	}
	for _, host := range openHosts(f.BreakerStates()) {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s stopped responding; later requests this run were skipped\n", host)
	}
	if err != nil {
		return err
	}
	if report.Failed() {
		return errPackagesFailed
	}
	return nil
}

// openHosts returns the hosts whose circuit breaker is open, sorted.
func openHosts(states map[string]string) []string {
	var hosts []string
	for host, state := range states {
		if state == "open" {
			hosts = append(hosts, host)
		}
	}
	sort.Strings(hosts)
	return hosts
}
