package relaysum

import (
	"github.com/spf13/cobra"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/config"
	"github.com/wal-g/relaysum/internal/handlers"
)

const digestShortDescription = "Prints the relay digest of files read one after another"

var digestAlgorithm string

// digestCmd represents the digest command
var digestCmd = &cobra.Command{
	Use:   "digest [files...]",
	Short: digestShortDescription,
	Long:  "Relays the files, or stdin when none are given, through chained hash stages and prints the digest of their concatenation.",
	Run: func(cmd *cobra.Command, args []string) {
		algorithm, err := config.ConfigureAlgorithm()
		tracelog.ErrorLogger.FatalOnError(err)
		if digestAlgorithm != "" {
			algorithm, err = checksum.ParseAlgorithm(digestAlgorithm)
			tracelog.ErrorLogger.FatalOnError(err)
		}
		err = handlers.HandleDigest(cmd.Context(), cmd.OutOrStdout(), algorithm, args)
		tracelog.ErrorLogger.FatalOnError(err)
	},
}

func init() {
	digestCmd.Flags().StringVarP(&digestAlgorithm, "algorithm", "a", "",
		"digest algorithm, overrides "+config.AlgorithmSetting)
	Cmd.AddCommand(digestCmd)
}
