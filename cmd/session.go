package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trunkline/internal/sessions"
	"trunkline/internal/ui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect the current session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE:  runSessionShow,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a session unless one is already active",
	Args:  cobra.NoArgs,
	RunE:  runSessionStart,
}

func init() {
	sessionShowCmd.Flags().Bool("json", false, "Print JSON")

	sessionCmd.AddCommand(sessionShowCmd, sessionStartCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	repo, err := openSessions()
	if err != nil {
		return err
	}

	session, err := repo.GetCurrentSession()
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), session)
	}
	if session == nil {
		ui.ShowInfo(cmd.OutOrStdout(), "No active session")
		return nil
	}
	printSession(cmd, repo, session)
	return nil
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	repo, err := openSessions()
	if err != nil {
		return err
	}

	session, err := repo.GetOrCreateCurrentSession()
	if err != nil {
		return err
	}
	printSession(cmd, repo, session)
	return nil
}

func printSession(cmd *cobra.Command, repo *sessions.Repository, s *sessions.Session) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", ui.ColorBold("session"), s.ID)

	started := time.UnixMilli(int64(s.Meta.StartTimestampMs))
	fmt.Fprintf(out, "  started: %s\n", started.Format(time.RFC3339))
	if s.Meta.Branch != nil {
		fmt.Fprintf(out, "  branch:  %s\n", *s.Meta.Branch)
	}
	if s.Meta.Commit != nil {
		fmt.Fprintf(out, "  commit:  %s\n", ui.ShortID(*s.Meta.Commit))
	}
	fmt.Fprintf(out, "  deltas:  %s\n", repo.DeltasPath())
}
