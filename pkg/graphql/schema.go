// Package graphql exposes report, resolve and select-all as GraphQL query
// fields. Graph documents and selections travel as JSON strings.
package graphql

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/service"
	"github.com/dd0wney/cluso-settingstext/pkg/traversal"
	"github.com/dd0wney/cluso-settingstext/pkg/validation"
)

var modeEnum = func() *graphql.Enum {
	values := graphql.EnumValueConfigMap{}
	for _, m := range report.Modes {
		values[enumName(m)] = &graphql.EnumValueConfig{Value: string(m)}
	}
	return graphql.NewEnum(graphql.EnumConfig{
		Name:   "ReportMode",
		Values: values,
	})
}()

// enumName turns "raw-yaml" into RAW_YAML
func enumName(m report.Mode) string {
	return strings.ToUpper(strings.ReplaceAll(string(m), "-", "_"))
}

var resolutionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Resolution",
	Fields: graphql.Fields{
		"value":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"outcome": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"depth":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var paramValueType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ParamValue",
	Fields: graphql.Fields{
		"param":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"value":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"outcome": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"depth":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var groupType = graphql.NewObject(graphql.ObjectConfig{
	Name: "NodeGroup",
	Fields: graphql.Fields{
		"id":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"title":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"active":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"missing": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"values":  &graphql.Field{Type: graphql.NewList(paramValueType)},
	},
})

var reportType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Report",
	Fields: graphql.Fields{
		"runId":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"mode":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"text":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"groups": &graphql.Field{Type: graphql.NewList(groupType)},
	},
})

var entryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SelectionEntry",
	Fields: graphql.Fields{
		"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"param": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"title": &graphql.Field{Type: graphql.String},
	},
})

// NewSchema builds the schema over svc
func NewSchema(svc *service.Service) (graphql.Schema, error) {
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"report": &graphql.Field{
				Type: reportType,
				Args: graphql.FieldConfigArgument{
					"selection": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"prompt":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"workflow":  &graphql.ArgumentConfig{Type: graphql.String},
					"mode":      &graphql.ArgumentConfig{Type: modeEnum, DefaultValue: string(report.ModeGrouped)},
				},
				Resolve: reportResolver(svc),
			},
			"resolve": &graphql.Field{
				Type: resolutionType,
				Args: graphql.FieldConfigArgument{
					"prompt":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"workflow": &graphql.ArgumentConfig{Type: graphql.String},
					"node":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"param":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolveResolver(svc),
			},
			"selectAll": &graphql.Field{
				Type: graphql.NewList(entryType),
				Args: graphql.FieldConfigArgument{
					"workflow": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"exclude":  &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: selectAllResolver(svc),
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func rawArg(p graphql.ResolveParams, name string) json.RawMessage {
	s := stringArg(p, name)
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

func reportResolver(svc *service.Service) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		res, err := svc.Report(p.Context, &validation.ReportRequest{
			Selection: rawArg(p, "selection"),
			Prompt:    rawArg(p, "prompt"),
			Workflow:  rawArg(p, "workflow"),
			Mode:      stringArg(p, "mode"),
		})
		if err != nil {
			return nil, err
		}
		return reportView(res), nil
	}
}

func resolveResolver(svc *service.Service) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		res, err := svc.Resolve(p.Context, &validation.ResolveRequest{
			Prompt:   rawArg(p, "prompt"),
			Workflow: rawArg(p, "workflow"),
			Node:     stringArg(p, "node"),
			Param:    stringArg(p, "param"),
		})
		if err != nil {
			return nil, err
		}
		return resolutionView(res), nil
	}
}

func selectAllResolver(svc *service.Service) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		entries, err := svc.SelectAll([]byte(stringArg(p, "workflow")), stringArg(p, "exclude"))
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(entries))
		for i, e := range entries {
			out[i] = map[string]any{"id": e.ID, "param": e.Param, "title": e.Title}
		}
		return out, nil
	}
}

func resolutionView(r traversal.Result) map[string]any {
	return map[string]any{
		"value":   r.Value,
		"outcome": string(r.Outcome),
		"depth":   r.Depth,
	}
}

func reportView(res *report.Result) map[string]any {
	groups := make([]map[string]any, len(res.Groups))
	for i, g := range res.Groups {
		values := make([]map[string]any, len(g.Values))
		for j, v := range g.Values {
			view := resolutionView(v.Result)
			view["param"] = v.Param
			values[j] = view
		}
		groups[i] = map[string]any{
			"id":      g.ID,
			"title":   g.Title,
			"active":  g.Active,
			"missing": g.Missing,
			"values":  values,
		}
	}
	return map[string]any{
		"runId":  res.RunID,
		"mode":   string(res.Mode),
		"text":   res.Text,
		"groups": groups,
	}
}
