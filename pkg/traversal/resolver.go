package traversal

import (
	"strings"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
	"github.com/dd0wney/cluso-settingstext/pkg/recovery"
)

// Source says which step of the lookup chain produced a Resolution
type Source int

const (
	SourceNone Source = iota
	SourceExact
	SourceFallback
	SourceRelay
	SourceHeuristic
)

var sourceNames = map[Source]string{
	SourceNone:      "none",
	SourceExact:     "exact",
	SourceFallback:  "fallback",
	SourceRelay:     "relay",
	SourceHeuristic: "heuristic",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// fallbackKeys are tried on the requested node when the key itself is absent
var fallbackKeys = []string{"value", "text"}

// Resolution is the outcome of looking a parameter up on one node
type Resolution struct {
	Value  graph.InputValue
	Found  bool
	Source Source
	// Key is the input name that answered, empty for heuristic matches
	Key   string
	Match recovery.Match
}

// Resolve looks param up on node: exact key, then value/text, then the
// first input of a relay, then heuristic recovery over positional values.
// A "group:param" name is looked up by its trailing segment.
func Resolve(node *graph.NodeView, param string) Resolution {
	key := NormaliseKey(param)

	if v, ok := node.Inputs.Get(key); ok && key != "" {
		return Resolution{Value: v, Found: true, Source: SourceExact, Key: key}
	}
	for _, k := range fallbackKeys {
		if v, ok := node.Inputs.Get(k); ok {
			return Resolution{Value: v, Found: true, Source: SourceFallback, Key: k}
		}
	}
	if IsRelay(node.ClassType) {
		if name, v, ok := node.Inputs.First(); ok {
			return Resolution{Value: v, Found: true, Source: SourceRelay, Key: name}
		}
	}

	if node.HasPositional() {
		hint := key
		if hint == "" {
			hint = param
		}
		if v, match, ok := recovery.Guess(node.Positional, hint); ok {
			return Resolution{Value: graph.Literal(v), Found: true, Source: SourceHeuristic, Match: match}
		}
	}
	return Resolution{}
}

// NormaliseKey returns the trailing segment of a namespaced parameter name
func NormaliseKey(param string) string {
	if i := strings.LastIndex(param, ":"); i >= 0 {
		return strings.TrimSpace(param[i+1:])
	}
	return param
}

// IsRelay reports whether classType only forwards its input
func IsRelay(classType string) bool {
	return strings.Contains(classType, "Reroute")
}

// IsGeneratedID reports ids that look like generated identifiers (long,
// hyphenated); they name shared/group scope ports rather than real nodes
func IsGeneratedID(id string) bool {
	return len(id) > 25 && strings.Contains(id, "-")
}
