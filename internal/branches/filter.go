package branches

import (
	"strings"

	"trunkline/pkg/errors"
)

// FilterName is the property a commit filter matches on
type FilterName string

const (
	FilterAuthor  FilterName = "author"
	FilterSHA     FilterName = "sha"
	FilterFile    FilterName = "file"
	FilterTitle   FilterName = "title"
	FilterBody    FilterName = "body"
	FilterMessage FilterName = "message"
)

const (
	filterPropSeparator    = ":"
	filterOrValueSeparator = ","
)

var filterNames = map[FilterName]bool{
	FilterAuthor:  true,
	FilterSHA:     true,
	FilterFile:    true,
	FilterTitle:   true,
	FilterBody:    true,
	FilterMessage: true,
}

// Filter keeps commits matching any of Values on Name
type Filter struct {
	Name   FilterName
	Values []string
}

// String renders the filter the way ParseFilter reads it
func (f Filter) String() string {
	return string(f.Name) + filterPropSeparator + strings.Join(f.Values, filterOrValueSeparator)
}

// ParseFilter reads a filter of the form `name:value[,value...]`
func ParseFilter(s string) (Filter, error) {
	name, values, ok := strings.Cut(s, filterPropSeparator)
	if !ok {
		return Filter{}, errors.ValidationError("filter", s, "expected name:value")
	}

	filterName := FilterName(strings.ToLower(strings.TrimSpace(name)))
	if !filterNames[filterName] {
		return Filter{}, errors.ValidationError("filter", s, "unknown filter "+name).
			WithSuggestions("Use one of author, sha, file, title, body, message")
	}
	if values == "" {
		return Filter{}, errors.ValidationError("filter", s, "filter needs at least one value")
	}

	return Filter{Name: filterName, Values: strings.Split(values, filterOrValueSeparator)}, nil
}

// ParseFilters parses every filter in specs
func ParseFilters(specs []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(specs))
	for _, spec := range specs {
		f, err := ParseFilter(spec)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// FilterCommits keeps the commits that match every filter and, when query is
// not empty, whose description contains query. Order is preserved.
func FilterCommits(commits []RemoteCommit, query string, filters []Filter) []RemoteCommit {
	filtered := make([]RemoteCommit, 0, len(commits))
	for _, c := range commits {
		if commitMatches(c, query, filters) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func commitMatches(c RemoteCommit, query string, filters []Filter) bool {
	for _, f := range filters {
		if !f.matches(c) {
			return false
		}
	}
	return query == "" || strings.Contains(c.Description, query)
}

func (f Filter) matches(c RemoteCommit) bool {
	switch f.Name {
	case FilterAuthor:
		return c.Author.Name != "" && anyValue(f.Values, func(v string) bool { return c.Author.Name == v })
	case FilterSHA:
		return anyValue(f.Values, func(v string) bool { return strings.HasPrefix(c.ID, v) })
	case FilterFile:
		return anyValue(f.Values, func(v string) bool {
			for _, path := range c.FilePaths {
				if strings.Contains(path, v) {
					return true
				}
			}
			return false
		})
	case FilterTitle:
		return anyValue(f.Values, func(v string) bool { return strings.Contains(c.Title(), v) })
	case FilterBody:
		return anyValue(f.Values, func(v string) bool { return strings.Contains(c.Body(), v) })
	case FilterMessage:
		return anyValue(f.Values, func(v string) bool { return strings.Contains(c.Description, v) })
	}
	return false
}

func anyValue(values []string, match func(string) bool) bool {
	for _, v := range values {
		if match(v) {
			return true
		}
	}
	return false
}

// Title is the first line of the description
func (c RemoteCommit) Title() string {
	title, _, _ := strings.Cut(c.Description, "\n")
	return title
}

// Body is the description after the title line, trimmed
func (c RemoteCommit) Body() string {
	_, body, _ := strings.Cut(c.Description, "\n")
	return strings.TrimSpace(body)
}
