package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trunkline/internal/deltas"
	"trunkline/internal/sessions"
	"trunkline/internal/ui"
	"trunkline/pkg/errors"
)

var deltasCmd = &cobra.Command{
	Use:   "deltas",
	Short: "Record and inspect editor deltas of the current session",
}

var deltasWriteCmd = &cobra.Command{
	Use:   "write <path>",
	Short: "Replace the deltas recorded for a path",
	Long: `Read a JSON array of deltas from --file (or stdin) and store it for path,
relative to the session's deltas directory. A session is started if none exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeltasWrite,
}

var deltasShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the deltas recorded for a path, or for every path",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeltasShow,
}

func init() {
	deltasWriteCmd.Flags().StringP("file", "f", "", "JSON file to read deltas from (default stdin)")

	deltasCmd.AddCommand(deltasWriteCmd, deltasShowCmd)
	rootCmd.AddCommand(deltasCmd)
}

func openSessions() (*sessions.Repository, error) {
	repo, err := openProject()
	if err != nil {
		return nil, err
	}
	return sessions.ForProject(repo)
}

func runDeltasWrite(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd)
	if err != nil {
		return err
	}

	var batch []deltas.Delta
	if err := json.Unmarshal(raw, &batch); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "Input is not a JSON array of deltas")
	}

	repo, err := openSessions()
	if err != nil {
		return err
	}
	writer, err := deltas.NewWriter(repo)
	if err != nil {
		return err
	}
	if err := writer.Write(args[0], batch); err != nil {
		return err
	}

	ui.ShowSuccess(cmd.OutOrStdout(), fmt.Sprintf("Wrote %d deltas for %s", len(batch), args[0]))
	return nil
}

func readInput(cmd *cobra.Command) ([]byte, error) {
	file, _ := cmd.Flags().GetString("file")

	var (
		raw []byte
		err error
	)
	if file == "" || file == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(file) // #nosec G304 - user-provided input file
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to read deltas input").
			WithContext("file", file)
	}
	return raw, nil
}

func runDeltasShow(cmd *cobra.Command, args []string) error {
	repo, err := openSessions()
	if err != nil {
		return err
	}
	reader := deltas.NewReader(repo)

	if len(args) == 1 {
		batch, err := reader.Read(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), batch)
	}

	all, err := reader.ReadAll()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), all)
}
