package relaysum

import (
	"github.com/spf13/cobra"
)

// flagsCmd represents the flags command
var flagsCmd = &cobra.Command{
	Use:                   "flags",
	Short:                 "Display the list of available global flags for all relaysum commands",
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		setConfigFlagsHidden(Cmd.PersistentFlags(), false)
		_ = cmd.Usage()
	},
	// skip metrics push for the help subcommand
	PersistentPostRun: func(*cobra.Command, []string) {},
}

func init() {
	flagsCmd.SetUsageTemplate(flagsUsageTemplate)
	flagsCmd.SetHelpTemplate(flagsHelpTemplate)
	Cmd.AddCommand(flagsCmd)
}

const flagsHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}{{end}}

Usage:
{{.UseLine}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{.Usage}}`
const flagsUsageTemplate = `Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}
`
