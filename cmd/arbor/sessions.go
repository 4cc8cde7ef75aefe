package main

import (
	"fmt"

	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/spf13/cobra"
)

func newSessionsCommand() *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored sessions",
	}

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			infos := st.Sessions()
			if len(infos) == 0 {
				fmt.Println("no sessions")
				return nil
			}
			for _, info := range infos {
				marker := " "
				if info.Active {
					marker = "*"
				}
				title := info.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Printf("%s %s  %s  created %s  updated %s\n",
					marker, info.ID, title,
					info.CreatedAt.Format("2006-01-02 15:04"),
					info.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	})

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			st.DeleteSession(tree.SessionID(args[0]))
			fmt.Println("deleted", args[0])
			return nil
		},
	})

	return sessionsCmd
}
