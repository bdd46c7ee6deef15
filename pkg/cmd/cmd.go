// Package cmd 包含 dataroom 的命令行：服务端启动、运维子命令以及基于 REST 客户端的交互命令.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yeisme/dataroom/pkg/configs"
)

var (
	// configPath 配置文件或所在目录.
	configPath string
	// output 输出格式 table|json|yaml，空值表示使用 client.output.
	output string
	// apiURL 覆盖 client.api_base_url.
	apiURL string
	// debug 打印 viper 调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:           configs.AppName,
		Short:         "DataRoom: data rooms, folders and files behind a REST API",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configs.InitConfig(configPath)
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", ".", "config file or directory")
	flags.StringVarP(&output, "output", "o", "", "output format: table, json or yaml")
	flags.StringVar(&apiURL, "api", "", "API base URL, overrides client.api_base_url")
	flags.BoolVar(&debug, "debug", false, "print debug information")

	registerServeCommands()
	registerConfigsCommands()
	registerStorageCommands()
	registerSessionCommands()
	registerRoomCommands()
	registerFolderCommands()
	registerFileCommands()
	registerNavigationCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
