package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <collection>...",
	Short: "List the requests in collections",
	Long: `List the requests defined in one or more collections, with the
source of every placeholder dependency.

Examples:
  glint list api.toml
  glint list api.toml admin.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	failed := false
	for _, file := range args {
		c, err := collection.LoadFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			failed = true
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, req := range c.Requests {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s  %s %s\n", req.Name, strings.ToUpper(req.Method), req.URL)

			names := make([]string, 0, len(req.Dependencies))
			for name := range req.Dependencies {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "      {%s} <- %s\n", name, req.Dependencies[name])
			}
		}
	}

	if failed {
		return withExitCode(ExitParseError, fmt.Errorf("some collections could not be parsed"))
	}
	return nil
}
