package cmd

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	"trunkline/internal/git"
	"trunkline/internal/target"
	"trunkline/internal/ui"
	"trunkline/pkg/errors"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage the branch every other branch is compared against",
}

var targetSetCmd = &cobra.Command{
	Use:   "set <remote>/<branch>",
	Short: "Set the target to a remote-tracking branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runTargetSet,
}

var targetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current target",
	Args:  cobra.NoArgs,
	RunE:  runTargetShow,
}

func init() {
	targetSetCmd.Flags().String("sha", "", "Pin the target to this commit instead of the branch tip")
	targetShowCmd.Flags().Bool("json", false, "Print JSON")

	targetCmd.AddCommand(targetSetCmd, targetShowCmd)
	rootCmd.AddCommand(targetCmd)
}

func runTargetSet(cmd *cobra.Command, args []string) error {
	repo, err := openProject()
	if err != nil {
		return err
	}

	name, err := git.ParseRemoteRefname(args[0])
	if err != nil {
		return errors.ValidationError("target", args[0], err.Error())
	}

	branch, err := repo.Git().FindBranch(git.Refname{Kind: git.RefRemote, Remote: name.Remote, Branch: name.Branch})
	if err != nil {
		return err
	}
	if branch == nil {
		return errors.BranchNotFoundError(name.String())
	}

	sha := branch.Target
	if pinned, _ := cmd.Flags().GetString("sha"); pinned != "" {
		if !plumbing.IsHash(pinned) {
			return errors.ValidationError("sha", pinned, "must be a full commit id")
		}
		sha = plumbing.NewHash(pinned)
	}
	commit, err := repo.Git().PeelToCommit(git.Branch{Name: branch.Name, Target: sha})
	if err != nil {
		return err
	}

	t := target.Target{
		Branch:    name,
		RemoteURL: remoteURL(repo.Git(), name.Remote),
		SHA:       commit.Hash,
	}
	if err := target.NewHandle(repo.StateDir()).SetDefaultTarget(t); err != nil {
		return err
	}

	ui.ShowSuccess(cmd.OutOrStdout(), fmt.Sprintf("Target set to %s at %s", name.ShortName(), ui.ShortID(t.SHA.String())))
	return nil
}

func runTargetShow(cmd *cobra.Command, args []string) error {
	repo, err := openProject()
	if err != nil {
		return err
	}

	t, err := target.NewHandle(repo.StateDir()).GetDefaultTarget()
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), t)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", ui.ColorBold(t.Branch.ShortName()), t.SHA)
	if t.RemoteURL != "" {
		fmt.Fprintf(out, "  remote url: %s\n", t.RemoteURL)
	}
	return nil
}

func remoteURL(repo *git.Repository, name string) string {
	remote, err := repo.Git().Remote(name)
	if err != nil {
		return ""
	}
	if urls := remote.Config().URLs; len(urls) > 0 {
		return urls[0]
	}
	return ""
}
