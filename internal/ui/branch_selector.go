package ui

import (
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"trunkline/internal/branches"
)

// BranchOptions builds the picker labels for list and maps each label back
// to the branch's full ref name.
func BranchOptions(list []branches.RemoteBranch, now time.Time) ([]string, map[string]string) {
	options := make([]string, 0, len(list))
	refs := make(map[string]string, len(list))

	for _, b := range list {
		author := "unknown"
		if b.LastCommitAuthor != nil {
			author = *b.LastCommitAuthor
		}
		option := fmt.Sprintf("%s - %s (%s, %s)",
			b.Name.String(),
			ShortID(b.Sha),
			author,
			lastCommitTime(b, now),
		)
		options = append(options, option)
		refs[option] = b.Name.String()
	}

	return options, refs
}

// SelectBranch displays an interactive branch selector and returns the
// chosen branch's full ref name
func SelectBranch(list []branches.RemoteBranch) (string, error) {
	if len(list) == 0 {
		return "", fmt.Errorf("no branches available")
	}

	options, refs := BranchOptions(list, time.Now())

	var selected string
	prompt := &survey.Select{
		Message:  "Select branch:",
		Options:  options,
		PageSize: 10,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return refs[selected], nil
}
