package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"trunkline/internal/branches"
	"trunkline/internal/git"
	"trunkline/internal/project"
	"trunkline/internal/ui"
	"trunkline/pkg/errors"
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "Inspect branches that are not the target",
}

var branchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local and remote branches with their last commit",
	Args:  cobra.NoArgs,
	RunE:  runBranchesList,
}

var branchesShowCmd = &cobra.Command{
	Use:   "show [ref]",
	Short: "Show how a branch diverges from the target",
	Long: `Show the commits a branch has on top of the target, how far it is behind,
where it forked and who touched what. Without a ref an interactive picker is
shown when running in a terminal.

Commits can be narrowed with --filter name:value[,value...] (author, sha, file,
title, body, message; values are OR-ed, filters are AND-ed) and --search, which
matches the commit message. Author and file counts follow the filtered commits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBranchesShow,
}

func init() {
	branchesListCmd.Flags().Bool("json", false, "Print JSON")
	branchesShowCmd.Flags().Bool("json", false, "Print JSON")
	branchesShowCmd.Flags().Int("limit", 5, "Rows per metrics table (0 shows all)")
	branchesShowCmd.Flags().StringArray("filter", nil, "Filter commits, e.g. author:Alice,Bob (repeatable)")
	branchesShowCmd.Flags().String("search", "", "Only show commits whose message contains this text")

	branchesCmd.AddCommand(branchesListCmd, branchesShowCmd)
	rootCmd.AddCommand(branchesCmd)
}

func runBranchesList(cmd *cobra.Command, args []string) error {
	repo, err := openProject()
	if err != nil {
		return err
	}

	list, err := branches.ListRemoteBranches(repo)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), list)
	}

	if len(list) == 0 {
		ui.ShowInfo(cmd.OutOrStdout(), "No branches besides the target")
		return nil
	}
	ui.BranchTable(cmd.OutOrStdout(), list, time.Now())
	return nil
}

func runBranchesShow(cmd *cobra.Command, args []string) error {
	repo, err := openProject()
	if err != nil {
		return err
	}

	specs, _ := cmd.Flags().GetStringArray("filter")
	filters, err := branches.ParseFilters(specs)
	if err != nil {
		return err
	}
	search, _ := cmd.Flags().GetString("search")

	var input string
	if len(args) == 1 {
		input = args[0]
	} else {
		input, err = pickBranch(repo)
		if err != nil {
			return err
		}
	}

	remotes, err := repo.Git().Remotes()
	if err != nil {
		return err
	}
	refname, err := git.ParseRefname(input, remotes)
	if err != nil {
		return errors.ValidationError("ref", input, err.Error())
	}

	data, err := branches.GetBranchData(repo, refname)
	if err != nil {
		return err
	}
	if len(filters) > 0 || search != "" {
		data.Commits = branches.FilterCommits(data.Commits, search, filters)
		data.RecentAuthors, data.RecentFiles = branches.GetRecentCommitsMetric(data.Commits)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), data)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()
	ui.BranchSummary(out, data)
	if len(data.Commits) == 0 {
		if len(filters) > 0 || search != "" {
			ui.ShowInfo(out, "No commits match the filters")
			return nil
		}
		ui.ShowInfo(out, "Branch has no commits on top of the target")
		return nil
	}
	ui.CommitTable(out, data.Commits)
	ui.MetricsTable(out, "Author", data.RecentAuthors, limit)
	ui.MetricsTable(out, "File", data.RecentFiles, limit)
	return nil
}

// interactive reports whether prompts can be shown
var interactive = func() bool {
	return ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
}

func pickBranch(repo *project.Repository) (string, error) {
	if !interactive() {
		return "", errors.ValidationError("ref", "", "a ref is required when not running in a terminal")
	}

	list, err := branches.ListRemoteBranches(repo)
	if err != nil {
		return "", err
	}
	return ui.SelectBranch(list)
}
