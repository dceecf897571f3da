package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <collection>...",
	Short: "Validate collections without executing them",
	Long: `Validate collections without sending any request. A collection is
valid when it parses, every placeholder has a dependency, response
dependencies name declared requests and no request depends on itself.

Examples:
  glint validate api.toml
  glint validate api.toml admin.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	hasErrors := false
	for _, file := range args {
		c, err := collection.LoadFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		issues := c.Validate()
		if len(issues) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
			continue
		}

		hasErrors = true
		for _, issue := range issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, issue)
		}
	}

	if hasErrors {
		return withExitCode(ExitParseError, fmt.Errorf("validation failed"))
	}
	return nil
}
