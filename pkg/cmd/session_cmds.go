package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/dataroom/pkg/client"
)

var (
	loginCmd = &cobra.Command{
		Use:   "login <username>",
		Short: "log in and store the access token in the state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}

			if err := s.client.Auth().Login(cmd.Context(), args[0]); err != nil {
				return err
			}

			s.state.Username = args[0]
			s.cursor.Clear()

			if err := s.save(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "logged in as", args[0])

			return nil
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "forget the access token and the current selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}

			s.client.Auth().Logout()
			s.cursor.Clear()
			s.state.Username = ""

			return s.save()
		},
	}

	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(s *session) error {
				u, err := s.client.Auth().Me(cmd.Context())
				if err != nil {
					return err
				}

				return render(cmd.OutOrStdout(), u, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL")
					fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.Email)
				})
			})
		},
	}
)

// registerSessionCommands 注册登录相关命令.
func registerSessionCommands() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}

	return uint(id), nil
}

// placement mv 命令的目标位置参数.
type placement struct {
	room   uint
	folder uint
	root   bool
}

func (p *placement) bind(cmd *cobra.Command) {
	cmd.Flags().UintVar(&p.room, "room", 0, "target data room id, defaults to the current one")
	cmd.Flags().UintVar(&p.folder, "folder", 0, "target folder id")
	cmd.Flags().BoolVar(&p.root, "root", false, "move to the data room root")
	cmd.MarkFlagsMutuallyExclusive("folder", "root")
}

// resolve 没有指定时使用当前位置.
func (p *placement) resolve(s *session) (client.ParentRef, error) {
	here, err := s.here()
	if err != nil && p.room == 0 {
		return nil, err
	}

	room := p.room
	if room == 0 {
		room = here.DataRoom()
	}

	switch {
	case p.folder != 0:
		return client.FolderRef{DataRoomID: room, FolderID: p.folder}, nil
	case p.root || p.room != 0:
		return client.DataRoomRoot{DataRoomID: room}, nil
	default:
		return here, nil
	}
}

func printRefs(tw *tabwriter.Writer, kind string, refs []client.ItemRef) {
	for _, r := range refs {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", kind, r.ID, r.Name)
	}
}
