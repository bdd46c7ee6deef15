package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/dataroom/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd.Context(), configPath)
		if err != nil {
			return err
		}

		return a.Run(cmd.Context())
	},
}

// registerServeCommands 注册服务端命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
