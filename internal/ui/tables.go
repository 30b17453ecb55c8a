package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"trunkline/internal/branches"
	"trunkline/internal/git"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// BranchTable renders the branch list. Remote-tracking branches are shown in
// cyan when color is enabled.
func BranchTable(w io.Writer, list []branches.RemoteBranch, now time.Time) {
	table := newTable(w, "Branch", "Sha", "Upstream", "Last commit", "Author")

	for _, b := range list {
		name := b.Name.String()
		if supportsColor && b.Name.Kind == git.RefRemote {
			name = color.CyanString(name)
		}

		upstream := ""
		if b.Upstream != nil {
			upstream = b.Upstream.ShortName()
		}

		author := ""
		if b.LastCommitAuthor != nil {
			author = *b.LastCommitAuthor
		}

		table.Append([]string{name, ShortID(b.Sha), upstream, lastCommitTime(b, now), author})
	}

	table.Render()
}

// lastCommitTime is the relative age of a branch tip, or "unknown" when the
// branch carries no timestamp
func lastCommitTime(b branches.RemoteBranch, now time.Time) string {
	if b.LastCommitTimestampMs == nil {
		return "unknown"
	}
	return FormatRelativeTime(time.UnixMilli(int64(*b.LastCommitTimestampMs)), now)
}

// CommitTable renders the ahead commits of a branch, newest first
func CommitTable(w io.Writer, commits []branches.RemoteCommit) {
	table := newTable(w, "Commit", "Author", "Files", "Message")

	for _, c := range commits {
		id := ShortID(c.ID)
		if supportsColor {
			id = color.YellowString(id)
		}
		table.Append([]string{
			id,
			c.Author.Name,
			fmt.Sprintf("%d", len(c.FilePaths)),
			FirstLine(c.Description, 60),
		})
	}

	table.Render()
}

// MetricsTable renders at most limit rows of a metrics table; limit <= 0
// renders everything.
func MetricsTable(w io.Writer, title string, metrics []branches.CommitMetrics, limit int) {
	if limit > 0 && len(metrics) > limit {
		metrics = metrics[:limit]
	}

	table := newTable(w, title, "Commits", "Ids")
	for _, m := range metrics {
		ids := make([]string, 0, len(m.CommitIDs))
		for _, id := range m.CommitIDs {
			ids = append(ids, ShortID(id))
		}
		table.Append([]string{m.Name, fmt.Sprintf("%d", m.Value), strings.Join(ids, " ")})
	}
	table.Render()
}

// BranchSummary writes the headline of a divergence report
func BranchSummary(w io.Writer, data *branches.RemoteBranchData) {
	ahead := fmt.Sprintf("%d ahead", len(data.Commits))
	behind := fmt.Sprintf("%d behind", data.Behind)
	if supportsColor {
		ahead = color.GreenString(ahead)
		behind = color.RedString(behind)
	}

	fmt.Fprintf(w, "%s %s\n", ColorBold(data.Name.String()), ColorDim(ShortID(data.Sha)))
	if data.Upstream != nil {
		fmt.Fprintf(w, "  upstream:   %s\n", data.Upstream.ShortName())
	}
	fmt.Fprintf(w, "  divergence: %s, %s\n", ahead, behind)
	if data.ForkPoint != nil {
		fmt.Fprintf(w, "  fork point: %s\n", ShortID(*data.ForkPoint))
	}
}
