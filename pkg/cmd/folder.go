package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	folderMove placement

	folderCmd = &cobra.Command{
		Use:     "folder",
		Short:   "Folder commands",
		Aliases: []string{"dir"},
	}

	folderMakeCmd = &cobra.Command{
		Use:     "mk <name>",
		Short:   "create a folder at the current location",
		Aliases: []string{"mkdir", "create"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				parent, err := s.here()
				if err != nil {
					return err
				}

				f := s.client.Folders().Create(cmd.Context(), args[0], parent)
				if f == nil {
					return errRequestFailed
				}

				s.refresh(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "created folder %d %q\n", f.ID, f.Name)

				return nil
			})
		},
	}

	folderOpenCmd = &cobra.Command{
		Use:     "open <id>",
		Short:   "open a folder of the current data room",
		Aliases: []string{"cd"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				f := s.client.Folders().Get(cmd.Context(), id)
				if f == nil {
					return errRequestFailed
				}

				return s.cursor.OpenFolder(f)
			})
		},
	}

	folderMoveCmd = &cobra.Command{
		Use:     "mv <id> <name>",
		Short:   "rename a folder and optionally move it (--folder, --root, --room)",
		Aliases: []string{"move", "rename"},
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				parent, err := folderMove.resolve(s)
				if err != nil {
					return err
				}

				if s.client.Folders().Move(cmd.Context(), id, args[1], parent) == nil {
					return errRequestFailed
				}

				s.refresh(cmd.Context())

				return nil
			})
		},
	}

	folderRemoveCmd = &cobra.Command{
		Use:     "rm <id>",
		Short:   "delete a folder and everything below it",
		Aliases: []string{"remove"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				if !s.client.Folders().Delete(cmd.Context(), id) {
					return errRequestFailed
				}

				s.refresh(cmd.Context())

				return nil
			})
		},
	}
)

// registerFolderCommands 注册文件夹命令.
func registerFolderCommands() {
	folderMove.bind(folderMoveCmd)

	folderCmd.AddCommand(folderMakeCmd, folderOpenCmd, folderMoveCmd, folderRemoveCmd)
	rootCmd.AddCommand(folderCmd)
}
