package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractmock/pkg/matchers"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <content-type>",
	Short: "Show which body matcher a content type resolves to",
	Long: `Resolve a content type the way the mock provider does when comparing
request bodies: plugin matchers first, then contentTypeOverrides from the
configuration file, then the built-in table.`,
	Example: `  contractmock resolve application/vnd.merchant+json
  contractmock resolve -c contractmock.yaml application/x-custom`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		registry := newRegistry(matchers.NewOverrideTable(cfg.ContentTypeOverrides))
		res := registry.Lookup(args[0])

		out := cmd.OutOrStdout()
		if res.Matcher == nil {
			fmt.Fprintf(out, "%s: no matcher\n", args[0])
		} else {
			fmt.Fprintf(out, "%s: %s (%s)\n", args[0], res.Matcher.Kind(), res.Source)
		}
		if len(res.Chain) > 1 {
			fmt.Fprintf(out, "  via %s\n", strings.Join(res.Chain, " -> "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
