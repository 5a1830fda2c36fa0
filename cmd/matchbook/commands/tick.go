package commands

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one cron invocation and print the result envelope",
	Run: func(cmd *cobra.Command, args []string) {
		env := engineRunner.RunCron(cmd.Context())
		out, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode envelope")
		}
		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(tickCmd)
}
