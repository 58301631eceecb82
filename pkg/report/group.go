package report

import (
	"sort"
	"strconv"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
)

// NodeGroup is the set of parameters requested for one node
type NodeGroup struct {
	ID     graph.NodeRef
	Title  string
	Params []string
}

// DefaultTitle is the header title used when the selection gives none
func DefaultTitle(id graph.NodeRef) string {
	return "Node #" + id
}

// Group collects entries by node id. The first title seen for a node wins;
// parameters keep selection order. Ids sort numerically when every id is
// numeric, lexically otherwise.
func Group(entries []Entry) []NodeGroup {
	index := make(map[graph.NodeRef]int)
	var groups []NodeGroup

	for _, e := range entries {
		i, ok := index[e.ID]
		if !ok {
			title := e.Title
			if title == "" {
				title = DefaultTitle(e.ID)
			}
			index[e.ID] = len(groups)
			groups = append(groups, NodeGroup{ID: e.ID, Title: title})
			i = len(groups) - 1
		}
		groups[i].Params = append(groups[i].Params, e.Param)
	}

	numeric := true
	for _, g := range groups {
		if _, err := strconv.ParseUint(g.ID, 10, 64); err != nil {
			numeric = false
			break
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		if numeric {
			x, _ := strconv.ParseUint(groups[a].ID, 10, 64)
			y, _ := strconv.ParseUint(groups[b].ID, 10, 64)
			return x < y
		}
		return groups[a].ID < groups[b].ID
	})
	return groups
}
