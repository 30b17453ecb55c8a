package branches

import "sort"

// GetRecentCommitsMetric tallies commits per author name and per touched file
// path in a single pass over commits. Both tables are sorted by descending
// count; equal counts keep first-seen order. Nothing is truncated.
func GetRecentCommitsMetric(commits []RemoteCommit) (recentAuthors, recentFiles []CommitMetrics) {
	authors := newMetricTable(len(commits))
	files := newMetricTable(0)

	for _, commit := range commits {
		authors.add(commit.Author.Name, commit.ID)
		for _, path := range commit.FilePaths {
			files.add(path, commit.ID)
		}
	}

	return authors.ranked(), files.ranked()
}

type metricTable struct {
	index   map[string]int
	entries []CommitMetrics
}

func newMetricTable(capacity int) *metricTable {
	return &metricTable{
		index:   make(map[string]int, capacity),
		entries: make([]CommitMetrics, 0, capacity),
	}
}

func (m *metricTable) add(name, commitID string) {
	i, ok := m.index[name]
	if !ok {
		i = len(m.entries)
		m.index[name] = i
		m.entries = append(m.entries, CommitMetrics{Name: name, CommitIDs: []string{}})
	}
	m.entries[i].Value++
	m.entries[i].CommitIDs = append(m.entries[i].CommitIDs, commitID)
}

func (m *metricTable) ranked() []CommitMetrics {
	sort.SliceStable(m.entries, func(i, j int) bool {
		return m.entries[i].Value > m.entries[j].Value
	})
	return m.entries
}
