package relaysum

import (
	"github.com/spf13/cobra"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/config"
	"github.com/wal-g/relaysum/internal/handlers"
)

const uploadShortDescription = "Uploads a file as a multipart object and records its relay digest"

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload local_path key",
	Short: uploadShortDescription,
	Long:  "Uploads local_path, or stdin when it is \"-\", to key and writes <key>.relaysum.json next to it.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		uploader, err := config.ConfigureUploader()
		tracelog.ErrorLogger.FatalOnError(err)
		err = handlers.HandleUpload(cmd.Context(), cmd.OutOrStdout(), uploader, args[0], args[1])
		tracelog.ErrorLogger.FatalOnError(err)
	},
}

func init() {
	Cmd.AddCommand(uploadCmd)
}
