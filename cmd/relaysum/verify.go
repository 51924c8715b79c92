package relaysum

import (
	"github.com/spf13/cobra"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/config"
	"github.com/wal-g/relaysum/internal/handlers"
)

const verifyShortDescription = "Re-reads an uploaded object and checks it against its manifest"

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify key",
	Short: verifyShortDescription,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		uploader, err := config.ConfigureUploader()
		tracelog.ErrorLogger.FatalOnError(err)
		err = handlers.HandleVerify(cmd.Context(), cmd.OutOrStdout(), uploader, args[0])
		tracelog.ErrorLogger.FatalOnError(err)
	},
}

func init() {
	Cmd.AddCommand(verifyCmd)
}
