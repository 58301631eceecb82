package report

import (
	"encoding/json"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
)

// rawNode is one entry of the raw dump
type rawNode struct {
	ID     graph.NodeRef `json:"id" yaml:"id"`
	Title  string        `json:"title" yaml:"title"`
	Active bool          `json:"active" yaml:"active"`
	Params []string      `json:"params" yaml:"params"`
	Node   any           `json:"node" yaml:"node"`
}

// renderRaw dumps the selected nodes as received, without resolving
// anything. Authoritative records win over design-time ones; missing nodes
// carry a null node.
func renderRaw(view *graph.View, groups []NodeGroup, asYAML bool) (string, error) {
	out := make([]rawNode, 0, len(groups))
	for _, grp := range groups {
		rn := rawNode{ID: grp.ID, Title: grp.Title, Params: grp.Params}
		if n, ok := view.Active().Node(grp.ID); ok {
			rn.Active = true
			rn.Node = n.Raw
		} else if dn, ok := view.Design().Node(grp.ID); ok {
			rn.Node = dn.Raw
		}
		out = append(out, rn)
	}

	if asYAML {
		for i := range out {
			out[i].Node = plainNumbers(out[i].Node)
		}
		b, err := yaml.Marshal(out)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\n"), nil
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// plainNumbers turns json.Number into YAML scalars that keep the literal
// text, so 7.0 stays 7.0 rather than becoming 7 or a quoted string
func plainNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		tag := "!!float"
		if _, err := t.Int64(); err == nil {
			tag = "!!int"
		} else if _, err := t.Float64(); err != nil {
			return t.String()
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plainNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plainNumbers(val)
		}
		return out
	default:
		return v
	}
}

// renderTable renders resolved values one row per parameter
func renderTable(groups []ResolvedGroup, markdown bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Node", "Title", "Parameter", "Value", "Outcome"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 40},
		{Number: 4, WidthMax: 60},
	})

	for _, grp := range groups {
		title := grp.Title
		if !grp.Active {
			title += inactiveSuffix
		}
		if grp.Missing {
			tw.AppendRow(table.Row{"#" + grp.ID, title, "", missingNodeLine, ""})
			continue
		}
		for _, v := range grp.Values {
			tw.AppendRow(table.Row{"#" + grp.ID, title, v.Param, v.Value, string(v.Outcome)})
		}
	}

	if markdown {
		return tw.RenderMarkdown()
	}
	return tw.Render()
}
