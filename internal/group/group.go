// Package group partitions a pull request set into named groups by label
// membership, with one catch-all remainder group.
package group

import (
	"strings"

	"github.com/drewdunne/pullboard/internal/model"
)

// FallbackColor is used for groups with no exactly-named available label,
// such as a synthesized prefix group.
const FallbackColor = "cccccc"

// Group is one named partition of the record set.
type Group struct {
	Name    string              `json:"name"`
	Color   string              `json:"color"`
	Records []model.PullRequest `json:"records"`
}

// Grouped is the result of a grouping pass. Groups appear in the order the
// selected labels were given; Remainder holds every record matching none of
// the selected groups.
type Grouped struct {
	Groups    []Group             `json:"groups"`
	Remainder []model.PullRequest `json:"remainder"`
}

// ByLabels partitions records by the selected group labels.
//
// A selected label with no colon in it becomes a prefix group when at least
// one available label name starts with "<label>:"; membership is then any
// record label carrying that prefix. Otherwise membership is an exact name
// match. A record can appear in several groups; the remainder re-derives
// the same prefix-or-exact decision per selected label, so it is exactly
// the set of records counted in no group.
func ByLabels(records []model.PullRequest, available []model.Label, selected []string) Grouped {
	matchers := make([]func(model.PullRequest) bool, len(selected))
	for i, name := range selected {
		matchers[i] = matcherFor(name, available)
	}

	groups := make([]Group, len(selected))
	for i, name := range selected {
		g := Group{
			Name:    name,
			Color:   colorFor(name, available),
			Records: []model.PullRequest{},
		}
		for _, pr := range records {
			if matchers[i](pr) {
				g.Records = append(g.Records, pr)
			}
		}
		groups[i] = g
	}

	remainder := []model.PullRequest{}
	for _, pr := range records {
		claimed := false
		for _, match := range matchers {
			if match(pr) {
				claimed = true
				break
			}
		}
		if !claimed {
			remainder = append(remainder, pr)
		}
	}

	return Grouped{Groups: groups, Remainder: remainder}
}

// matcherFor decides prefix-vs-exact membership for one selected label.
func matcherFor(name string, available []model.Label) func(model.PullRequest) bool {
	if !strings.Contains(name, ":") {
		prefix := name + ":"
		if anyHasPrefix(available, prefix) {
			return func(pr model.PullRequest) bool {
				for _, l := range pr.Labels {
					if strings.HasPrefix(l.Name, prefix) {
						return true
					}
				}
				return false
			}
		}
	}
	return func(pr model.PullRequest) bool {
		for _, l := range pr.Labels {
			if l.Name == name {
				return true
			}
		}
		return false
	}
}

func anyHasPrefix(available []model.Label, prefix string) bool {
	for _, l := range available {
		if strings.HasPrefix(l.Name, prefix) {
			return true
		}
	}
	return false
}

// colorFor returns the color of the first available label literally named
// like the group, or the neutral fallback.
func colorFor(name string, available []model.Label) string {
	for _, l := range available {
		if l.Name == name {
			return l.Color
		}
	}
	return FallbackColor
}
