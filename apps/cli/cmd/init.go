package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/glint/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new glint project",
	Long: `Initialize a new glint project in the current directory.

This creates:
  - .glint.yaml    - Configuration file with the default settings
  - example.toml   - Example collection chaining two requests

Examples:
  glint init
  glint init --force`,
	Annotations: map[string]string{skipSetupAnnotation: "true"},
	RunE:        initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleCollection = `# Requests run in declared order with "glint run example.toml".
# Run one of them with "glint run example.toml <name>".

[[requests]]
name = "login"
method = "POST"
url = "{base_url}/post"
headers = { "Content-Type" = "application/json" }
body = { type = "json", content = { user = "{user}", password = "{password}" } }
masking_rules = [ { path = "$.json.password", regex = ".+", replace = "********" } ]

[requests.dependencies]
base_url = { source = "env_var", name = "GLINT_EXAMPLE_BASE_URL", prompt = "Base URL (e.g. https://httpbin.org)" }
user = { source = "prompt", label = "User" }
password = { source = "env_file", env_file = ".env.example", key = "password", prompt = "Password" }

[[requests]]
name = "echo"
method = "GET"
url = "{base_url}/anything/{user}"
headers = { "X-Request-Id" = "{request_id}", "X-Sent-At" = "{sent_at}" }

[requests.dependencies]
base_url = { source = "env_var", name = "GLINT_EXAMPLE_BASE_URL", prompt = "Base URL (e.g. https://httpbin.org)" }
user = { source = "response", request = "login", target = { type = "json_body", pointer = "/json/user" } }
request_id = { source = "generated", expression = "uuid()" }
sent_at = { source = "generated", expression = "now()" }
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigName+".yaml")
	exampleFile := filepath.Join(cwd, "example.toml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{"User-Agent": "glint/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleCollection), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nglint project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'glint run example.toml' to execute the example requests.\n")

	return nil
}
