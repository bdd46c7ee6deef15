package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/dataroom/pkg/client"
)

var (
	fileMove placement
	fileOut  string

	fileCmd = &cobra.Command{
		Use:   "file",
		Short: "File commands",
	}

	filePutCmd = &cobra.Command{
		Use:     "put <path>",
		Short:   "upload a local file to the current location",
		Aliases: []string{"upload"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				parent, err := s.here()
				if err != nil {
					return err
				}

				content, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer content.Close()

				f, err := s.client.Files().Upload(cmd.Context(), content, parent)
				if err != nil {
					return err
				}

				s.refresh(cmd.Context())

				return render(cmd.OutOrStdout(), f, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE")
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", f.ID, f.Name, f.Size, f.ContentType)
				})
			})
		},
	}

	fileGetCmd = &cobra.Command{
		Use:     "get <id>",
		Short:   "download a file, -O - writes to stdout",
		Aliases: []string{"download"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				dl, err := s.client.Files().Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				defer dl.Body.Close()

				if fileOut == "-" {
					_, err = io.Copy(cmd.OutOrStdout(), dl.Body)
					return err
				}

				target := fileOut
				if target == "" {
					target = filepath.Base(dl.Name)
				}

				if target == "" || target == "." || target == string(filepath.Separator) {
					target = fmt.Sprintf("file-%d", id)
				}

				out, err := os.Create(target)
				if err != nil {
					return err
				}

				n, err := io.Copy(out, dl.Body)
				if cerr := out.Close(); err == nil {
					err = cerr
				}

				if err != nil {
					return fmt.Errorf("write %s: %w", target, err)
				}

				// 只有当前位置列出的文件才会被选中
				_ = s.cursor.SelectFile(client.ItemRef{ID: id})

				fmt.Fprintf(cmd.ErrOrStderr(), "saved %s (%d bytes)\n", target, n)

				return nil
			})
		},
	}

	fileMoveCmd = &cobra.Command{
		Use:     "mv <id> <name>",
		Short:   "rename a file and optionally move it (--folder, --root, --room)",
		Aliases: []string{"move", "rename"},
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				parent, err := fileMove.resolve(s)
				if err != nil {
					return err
				}

				if s.client.Files().Move(cmd.Context(), id, args[1], parent) == nil {
					return errRequestFailed
				}

				s.refresh(cmd.Context())

				return nil
			})
		},
	}

	fileRemoveCmd = &cobra.Command{
		Use:     "rm <id>",
		Short:   "delete a file",
		Aliases: []string{"remove"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(s *session) error {
				if !s.client.Files().Delete(cmd.Context(), id) {
					return errRequestFailed
				}

				var err error

				if f := s.cursor.File(); f != nil && f.ID == id {
					if folder := s.cursor.Folder(); folder != nil {
						err = s.cursor.OpenFolder(folder)
					} else {
						s.cursor.SelectDataRoom(s.cursor.DataRoom())
					}
				}

				s.refresh(cmd.Context())

				return err
			})
		},
	}
)

// registerFileCommands 注册文件命令.
func registerFileCommands() {
	fileMove.bind(fileMoveCmd)
	fileGetCmd.Flags().StringVarP(&fileOut, "out", "O", "", "output path, defaults to the file name")

	fileCmd.AddCommand(filePutCmd, fileGetCmd, fileMoveCmd, fileRemoveCmd)
	rootCmd.AddCommand(fileCmd)
}
