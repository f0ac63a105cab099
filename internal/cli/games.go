package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "games",
		Aliases: []string{"game"},
		Short:   "Game commands",
	}

	cmd.AddCommand(newGamesListCmd())
	cmd.AddCommand(newGamesGetCmd())
	cmd.AddCommand(newGamesJoinCmd())
	cmd.AddCommand(newGamesQuestionsCmd())
	cmd.AddCommand(newGamesSubmitCmd())
	cmd.AddCommand(newGamesStandingsCmd())

	return cmd
}

// parseGameID validates a game id argument
func parseGameID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid game id %q", arg)
	}
	return id, nil
}

func newGamesListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open games",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/games"
			if all {
				path += "?all=true"
			}

			var result GameList
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include complete games")

	return cmd
}

func newGamesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a game and its registered addresses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			var result GameDetail
			if err := client.Get(fmt.Sprintf("/api/v1/games/%d", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newGamesJoinCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "join <id>",
		Short: "Register an address with a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			req := map[string]string{"address": address}
			var result JoinResult
			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/join", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Address to register (required)")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func newGamesQuestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questions <id>",
		Short: "Show the questions of an active game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			var result Questions
			if err := client.Get(fmt.Sprintf("/api/v1/games/%d/questions", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newGamesSubmitCmd() *cobra.Command {
	var (
		address string
		answers []string
	)

	cmd := &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit answers, in question order",
		Long: `Submit answers for an active game. Pass --answer once per question, in the
order the questions are listed. A later submission replaces the earlier score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			if answers == nil {
				answers = []string{}
			}

			req := map[string]any{"address": address, "answers": answers}
			var result SubmitResult
			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/submit", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Registered address (required)")
	cmd.Flags().StringArrayVarP(&answers, "answer", "a", nil, "Answer (repeatable)")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func newGamesStandingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standings <id>",
		Short: "Show ranked players and the winner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			var result Standings
			if err := client.Get(fmt.Sprintf("/api/v1/games/%d/standings", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics across all games",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Stats
			if err := client.Get("/api/v1/stats", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
