package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/dataroom/pkg/configs"
)

// configFiles config path 的输出.
type configFiles struct {
	Config    string `json:"config"     yaml:"config"`
	State     string `json:"state"      yaml:"state"`
	EnvPrefix string `json:"env_prefix" yaml:"env_prefix"`
}

var (
	// config 子命令.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	// 打印配置文件与 CLI 状态文件的位置.
	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the config file and the CLI state file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := configFiles{
				State:     configs.GetConfig().Client.GetStateFile(),
				EnvPrefix: configs.EnvPrefix + "_",
			}

			if v := configs.GetViper(); v != nil {
				files.Config = v.ConfigFileUsed()
			}

			return render(cmd.OutOrStdout(), files, func(tw *tabwriter.Writer) {
				config := files.Config
				if config == "" {
					config = "(none, using defaults and environment)"
				}

				fmt.Fprintf(tw, "config\t%s\n", config)
				fmt.Fprintf(tw, "state\t%s\n", files.State)
				fmt.Fprintf(tw, "env prefix\t%s\n", files.EnvPrefix)
			})
		},
	}

	// 打印当前生效的配置，--debug 时附带 viper 的 Debug 输出.
	configDebugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return fmt.Errorf("config not initialized")
			}

			if debug {
				v.Debug()
			}

			format := outputFormat()
			if format == formatTable {
				format = formatYAML
			}

			return encode(cmd.OutOrStdout(), format, configs.GetConfig())
		},
	}

	// 按 rule 标签校验配置.
	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "validate the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.GetConfig().Validate(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "config ok")

			return nil
		},
	}
)

// registerConfigsCommands 注册 config 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd, configDebugCmd, configValidateCmd)

	rootCmd.AddCommand(configCmd)
}
