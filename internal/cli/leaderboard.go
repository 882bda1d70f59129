package cli

import (
	"github.com/spf13/cobra"

	"github.com/translation-arena/backend/internal/render"
)

func NewLeaderboardCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		limit int
		user  string
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the best session scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Game.Leaderboard(user, limit)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			render.New(cmd.OutOrStdout()).Leaderboard(resp)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries")
	cmd.Flags().StringVarP(&user, "user", "u", "", "mark this user's rank")
	return cmd
}
