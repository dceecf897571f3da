package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for glint.

To load completions:

Bash:
  $ source <(glint completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ glint completion bash > /etc/bash_completion.d/glint
  # macOS:
  $ glint completion bash > $(brew --prefix)/etc/bash_completion.d/glint

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ glint completion zsh > "${fpath[1]}/_glint"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ glint completion fish | source

  # To load completions for each session, execute once:
  $ glint completion fish > ~/.config/fish/completions/glint.fish

PowerShell:
  PS> glint completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> glint completion powershell > glint.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	Annotations:           map[string]string{skipSetupAnnotation: "true"},
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
