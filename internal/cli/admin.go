package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin commands",
	}

	cmd.AddCommand(newAdminLoginCmd())
	cmd.AddCommand(newAdminLogoutCmd())
	cmd.AddCommand(newAdminCreateGameCmd())
	cmd.AddCommand(newAdminStartCmd())

	return cmd
}

func newAdminLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an admin and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"username": user,
				"password": pass,
			}
			var result Session

			if err := client.Post("/api/v1/admin/login", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAdminLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the saved admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/admin/logout", nil, nil); err != nil {
				return err
			}
			if err := cfg.SaveToken(""); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

// parseQuestion splits a "phrase=answer" flag value on its last '='
func parseQuestion(value string) (map[string]string, error) {
	i := strings.LastIndex(value, "=")
	if i <= 0 || i == len(value)-1 {
		return nil, fmt.Errorf("invalid question %q: expected phrase=answer", value)
	}
	return map[string]string{"phrase": value[:i], "answer": value[i+1:]}, nil
}

func newAdminCreateGameCmd() *cobra.Command {
	var (
		timeLimit  int
		maxPlayers int
		pot        string
		entry      string
		startTime  string
		questions  []string
	)

	cmd := &cobra.Command{
		Use:   "create-game",
		Short: "Create a game",
		Long: `Create a game with up to twelve questions, each given as --question
"phrase=answer". Without --start-time the game waits for "admin start".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			potSize, err := decimal.NewFromString(pot)
			if err != nil {
				return fmt.Errorf("invalid --pot %q", pot)
			}
			entryValue, err := decimal.NewFromString(entry)
			if err != nil {
				return fmt.Errorf("invalid --entry %q", entry)
			}

			pairs := make([]map[string]string, 0, len(questions))
			for _, q := range questions {
				pair, err := parseQuestion(q)
				if err != nil {
					return err
				}
				pairs = append(pairs, pair)
			}

			req := map[string]any{
				"time_limit":  timeLimit,
				"max_players": maxPlayers,
				"pot_size":    potSize,
				"entry_value": entryValue,
				"questions":   pairs,
			}
			if startTime != "" {
				t, err := time.Parse(time.RFC3339, startTime)
				if err != nil {
					return fmt.Errorf("invalid --start-time %q: use RFC3339", startTime)
				}
				req["start_time"] = t
			}

			var result CreatedGame
			if err := client.Post("/api/v1/admin/games", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&timeLimit, "time-limit", 300, "Time limit in seconds")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 10, "Maximum number of players")
	cmd.Flags().StringVar(&pot, "pot", "", "Pot size (required)")
	cmd.Flags().StringVar(&entry, "entry", "", "Entry value (required)")
	cmd.Flags().StringVar(&startTime, "start-time", "", "Scheduled start (RFC3339)")
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "Question as phrase=answer (repeatable)")
	_ = cmd.MarkFlagRequired("pot")
	_ = cmd.MarkFlagRequired("entry")

	return cmd
}

func newAdminStartCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start a game now, or schedule it with --at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			var body any
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: use RFC3339", at)
				}
				body = map[string]time.Time{"start_time": t}
			}

			var result Game
			if err := client.Post(fmt.Sprintf("/api/v1/admin/games/%d/start", id), body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Scheduled start (RFC3339)")

	return cmd
}
