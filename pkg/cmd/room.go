package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	roomCmd = &cobra.Command{
		Use:     "room",
		Short:   "Data room commands",
		Aliases: []string{"data-room", "dr"},
	}

	roomListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list your data rooms",
		Aliases: []string{"ls", "l"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				return listRooms(cmd, s)
			})
		},
	}

	roomCreateCmd = &cobra.Command{
		Use:     "create <name>",
		Short:   "create a data room and open it",
		Aliases: []string{"mk"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				r := s.client.DataRooms().Create(cmd.Context(), args[0])
				if r == nil {
					return errRequestFailed
				}

				s.cursor.SelectDataRoom(r)
				fmt.Fprintf(cmd.OutOrStdout(), "created data room %d %q\n", r.ID, r.Name)

				return nil
			})
		},
	}

	roomRenameCmd = &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "rename a data room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				if s.client.DataRooms().Rename(cmd.Context(), id, args[1]) == nil {
					return errRequestFailed
				}

				s.refresh(cmd.Context())

				return nil
			})
		},
	}

	roomRemoveCmd = &cobra.Command{
		Use:     "remove <id>",
		Short:   "delete a data room with all of its folders and files",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				if !s.client.DataRooms().Delete(cmd.Context(), id) {
					return errRequestFailed
				}

				s.refresh(cmd.Context())

				return nil
			})
		},
	}

	roomOpenCmd = &cobra.Command{
		Use:     "open <id>",
		Short:   "select a data room",
		Aliases: []string{"cd"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				r := s.client.DataRooms().Get(cmd.Context(), id)
				if r == nil {
					return errRequestFailed
				}

				s.cursor.SelectDataRoom(r)

				return nil
			})
		},
	}
)

// listRooms 打印数据室列表，当前选中的用 * 标记.
func listRooms(cmd *cobra.Command, s *session) error {
	rooms := s.client.DataRooms().List(cmd.Context())

	current := uint(0)
	if r := s.cursor.DataRoom(); r != nil {
		current = r.ID
	}

	return render(cmd.OutOrStdout(), rooms, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "\tID\tNAME\tFOLDERS\tFILES")
		for _, r := range rooms {
			mark := ""
			if r.ID == current {
				mark = "*"
			}

			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\n", mark, r.ID, r.Name, len(r.Folders), len(r.Files))
		}
	})
}

// registerRoomCommands 注册数据室命令.
func registerRoomCommands() {
	roomCmd.AddCommand(roomListCmd, roomCreateCmd, roomRenameCmd, roomRemoveCmd, roomOpenCmd)
	rootCmd.AddCommand(roomCmd)
}
