package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/model"
	"github.com/yeisme/dataroom/pkg/internal/storage/blob"
	"github.com/yeisme/dataroom/pkg/internal/storage/db"
	"github.com/yeisme/dataroom/pkg/internal/storage/kv"
	"github.com/yeisme/dataroom/pkg/internal/storage/mq"
	"github.com/yeisme/dataroom/pkg/log"
)

// backends 某类存储已编译进来的后端与当前配置使用的后端.
type backends struct {
	Kind       string   `json:"kind"       yaml:"kind"`
	Configured string   `json:"configured" yaml:"configured"`
	Registered []string `json:"registered" yaml:"registered"`
}

func names[T ~string](types []T) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}

	return out
}

// listBackendsCmd 生成 "<kind> ls" 子命令.
func listBackendsCmd(kind string, get func(cfg *configs.AppConfig) backends) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "list the " + kind + " backends compiled into this binary",
		Aliases: []string{"ls", "l"},
		RunE: func(cmd *cobra.Command, args []string) error {
			b := get(configs.GetConfig())
			b.Kind = kind

			return render(cmd.OutOrStdout(), b, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "Registered %s types:\n", kind)
				for _, t := range b.Registered {
					mark := " "
					if t == b.Configured {
						mark = "*"
					}

					fmt.Fprintf(tw, " %s %s\n", mark, t)
				}
			})
		},
	}
}

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update the users, data_rooms, folders and files tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()

			client, err := db.New(cmd.Context(), &cfg.DB, db.Options{})
			if err != nil {
				return err
			}
			defer client.Close()

			if err := model.AutoMigrate(client.GetDB()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			log.Logger().Info().Str("type", cfg.DB.GetDBType()).Msg("migration finished")

			return nil
		},
	}

	blobCmd = &cobra.Command{
		Use:   "blob",
		Short: "File content storage related commands",
	}

	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store related commands",
		Aliases: []string{"keyvalue"},
	}

	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message queue related commands",
		Aliases: []string{"messagequeue"},
	}
)

// registerStorageCommands 注册数据库、内容存储、KV 与 MQ 相关命令.
func registerStorageCommands() {
	dbCmd.AddCommand(dbMigrateCmd, listBackendsCmd("database", func(cfg *configs.AppConfig) backends {
		return backends{Configured: string(cfg.DB.Dialect()), Registered: names(db.GetRegisteredDBTypes())}
	}))

	blobCmd.AddCommand(listBackendsCmd("blob", func(cfg *configs.AppConfig) backends {
		return backends{Configured: string(cfg.Blob.Type), Registered: names(blob.GetRegisteredTypes())}
	}))

	kvCmd.AddCommand(listBackendsCmd("kv", func(cfg *configs.AppConfig) backends {
		return backends{Configured: string(cfg.KV.Type), Registered: names(kv.GetRegisteredKVTypes())}
	}))

	mqCmd.AddCommand(listBackendsCmd("mq", func(cfg *configs.AppConfig) backends {
		return backends{Configured: string(cfg.MQ.Type), Registered: names(mq.GetRegisteredTypes())}
	}))

	rootCmd.AddCommand(dbCmd, blobCmd, kvCmd, mqCmd)
}
