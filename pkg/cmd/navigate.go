package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/dataroom/pkg/client"
	"github.com/yeisme/dataroom/pkg/selection"
)

// listing ls 的结构化输出.
type listing struct {
	DataRoom *client.DataRoom `json:"data_room,omitempty" yaml:"data_room,omitempty"`
	Folder   *client.Folder   `json:"folder,omitempty"    yaml:"folder,omitempty"`
	Folders  []client.ItemRef `json:"folders"             yaml:"folders"`
	Files    []client.ItemRef `json:"files"               yaml:"files"`
}

var (
	backCmd = &cobra.Command{
		Use:   "back",
		Short: "go to the parent folder, the data room root, or clear the selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				return s.cursor.GoBack(cmd.Context())
			})
		},
	}

	pwdCmd = &cobra.Command{
		Use:   "pwd",
		Short: "print the current selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				pos := s.cursor.Position()

				return render(cmd.OutOrStdout(), pos, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, describe(s.cursor.Snapshot()))
				})
			})
		},
	}

	lsCmd = &cobra.Command{
		Use:   "ls",
		Short: "list the current folder, data room root, or your data rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				s.refresh(cmd.Context())

				snap := s.cursor.Snapshot()
				if snap.DataRoom == nil {
					return listRooms(cmd, s)
				}

				l := listing{DataRoom: snap.DataRoom, Folders: snap.DataRoom.Folders, Files: snap.DataRoom.Files}
				if snap.Folder != nil {
					l.Folder, l.Folders, l.Files = snap.Folder, snap.Folder.ChildrenFolders, snap.Folder.ChildrenFiles
				}

				return render(cmd.OutOrStdout(), l, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, describe(snap))
					fmt.Fprintln(tw, "KIND\tID\tNAME")
					printRefs(tw, "folder", l.Folders)
					printRefs(tw, "file", l.Files)
				})
			})
		},
	}
)

// describe 形如 "Deals / Contracts (folder 3) [report.pdf]".
func describe(s selection.Snapshot) string {
	if s.DataRoom == nil {
		return "(no data room selected)"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s (data room %d)", s.DataRoom.Name, s.DataRoom.ID)

	if s.Folder != nil {
		fmt.Fprintf(&b, " / %s (folder %d)", s.Folder.Name, s.Folder.ID)
	}

	if s.File != nil {
		fmt.Fprintf(&b, " [%s]", s.File.Name)
	}

	return b.String()
}

// registerNavigationCommands 注册导航命令.
func registerNavigationCommands() {
	rootCmd.AddCommand(backCmd, pwdCmd, lsCmd)
}
