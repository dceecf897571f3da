package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/import/curl"
	"github.com/spf13/cobra"
)

var (
	importFormatFlag  string
	importBaseURLFlag string
	importOutputFlag  string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import requests from other tools",
}

var importCurlCmd = &cobra.Command{
	Use:   "curl <file|->",
	Short: "Convert curl commands into a collection",
	Long: `Convert curl commands, one per line with backslash continuations, into
a glint collection. Use - to read from stdin.

Examples:
  glint import curl requests.sh -o api.toml
  pbpaste | glint import curl - --base-url base_url --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: importCurlCommand,
}

func init() {
	importCurlCmd.Flags().StringVar(&importFormatFlag, "format", "toml", "Collection format: toml, yaml")
	importCurlCmd.Flags().StringVar(&importBaseURLFlag, "base-url", "", "Replace scheme and host with this placeholder, read from the matching environment variable")
	importCurlCmd.Flags().StringVarP(&importOutputFlag, "output-file", "o", "", "Write the collection to a file (default: stdout)")

	importCmd.AddCommand(importCurlCmd)
	rootCmd.AddCommand(importCmd)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	var format collection.Format
	switch strings.ToLower(importFormatFlag) {
	case "toml":
		format = collection.FormatTOML
	case "yaml", "yml":
		format = collection.FormatYAML
	default:
		return withExitCode(ExitUsageError, fmt.Errorf("unknown format %q (want toml or yaml)", importFormatFlag))
	}

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		defer f.Close()
		in = f
	}

	var opts []curl.Option
	if importBaseURLFlag != "" {
		opts = append(opts, curl.WithBaseURL(importBaseURLFlag))
	}

	c, err := curl.NewConverter(opts...).Convert(in)
	if err != nil {
		return withExitCode(ExitParseError, err)
	}

	data, err := collection.Encode(c, format)
	if err != nil {
		return err
	}

	if importOutputFlag == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(importOutputFlag, data, 0644); err != nil {
		return fmt.Errorf("cannot write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d requests into %s\n", len(c.Requests), importOutputFlag)
	return nil
}
