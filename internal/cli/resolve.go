package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/pkginstall/internal/fetch"
	"github.com/agentx-labs/pkginstall/internal/registry"
)

var (
	resolveRegistry string
	resolveJSON     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name> [version]",
	Short: "Show which registry version a request resolves to",
	Long: `Fetch the registry and print the version that would be installed for a
request. The version may be exact, "latest", empty, or a "^" range marker.
Nothing is downloaded or installed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveRegistry, "registry", "", "Registry URL (default: registry_url from the config)")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(resolveCmd)
}

type resolveOutput struct {
	Name      string   `json:"name"`
	Requested string   `json:"requested"`
	Version   string   `json:"version"`
	URL       string   `json:"url"`
	FellBack  bool     `json:"fellBack"`
	Available []string `json:"available"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	url := resolveRegistry
	if url == "" {
		url = s.cfg.RegistryURL
	}
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("no registry URL: set registry_url in the config or pass --registry")
	}

	requested := ""
	if len(args) == 2 {
		requested = args[1]
	}

	doc, err := fetch.New(fetch.WithLogger(s.logger)).FetchRegistry(cmd.Context(), url)
	if err != nil {
		return err
	}
	entry, err := doc.Lookup(args[0])
	if err != nil {
		if names := doc.Names(); len(names) > 0 {
			return fmt.Errorf("%w (registry has: %s)", err, strings.Join(names, ", "))
		}
		return err
	}
	res := registry.SelectByRequest(entry, requested)
	if res.Version == nil {
		return &registry.NotFoundError{Name: args[0], Version: requested}
	}

	out := resolveOutput{
		Name:      args[0],
		Requested: res.Requested,
		Version:   res.Version.Version,
		URL:       res.Version.URL,
		FellBack:  res.FellBack,
		Available: entry.Keys(),
	}

	if resolveJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", out.Name, out.Version)
	fmt.Fprintf(w, "  url:       %s\n", out.URL)
	fmt.Fprintf(w, "  available: %s\n", strings.Join(out.Available, ", "))
	if out.FellBack {
		fmt.Fprintf(w, "  ⚠️  version %s not found, latest selected\n", out.Requested)
	}
	return nil
}
