package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractmock/pkg/interaction"
)

var validateInteractions []string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and interaction files without starting the provider",
	Long: `Validate a configuration file and any number of interaction files.

This command checks:
  - YAML syntax and unknown fields
  - Listener settings (port range, scheme, TLS material)
  - Content type overrides
  - Interaction request paths and response status codes`,
	Example: `  contractmock validate -c contractmock.yaml
  contractmock validate -i orders.yaml -i payments.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configPath == "" && len(validateInteractions) == 0 {
			return errors.New("nothing to validate: pass --config or --interactions")
		}
		out := cmd.OutOrStdout()

		var errs []error
		if configPath != "" {
			if _, err := loadConfig(configPath); err != nil {
				errs = append(errs, err)
			} else {
				fmt.Fprintf(out, "%s: ok\n", configPath)
			}
		}
		for _, path := range validateInteractions {
			interactions, err := interaction.Load(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "%s: ok (%d interactions)\n", path, len(interactions))
		}
		return errors.Join(errs...)
	},
}

func init() {
	validateCmd.Flags().StringArrayVarP(&validateInteractions, "interactions", "i", nil, "Interaction file to check (repeatable)")
	rootCmd.AddCommand(validateCmd)
}
