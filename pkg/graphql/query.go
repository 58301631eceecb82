package graphql

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth bounds selection nesting; the schema itself is three
// levels deep
const DefaultMaxDepth = 6

// ExecuteQuery executes a GraphQL query against a schema
func ExecuteQuery(ctx context.Context, query string, schema graphql.Schema, variables map[string]any) *graphql.Result {
	params := graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       ctx,
	}
	if len(variables) > 0 {
		params.VariableValues = variables
	}
	return graphql.Do(params)
}

// ExecuteWithDepthLimit rejects queries nested deeper than maxDepth
// before executing them
func ExecuteWithDepthLimit(ctx context.Context, schema graphql.Schema, query string, maxDepth int, variables map[string]any) *graphql.Result {
	if err := ValidateQueryDepth(query, maxDepth); err != nil {
		return &graphql.Result{
			Errors: []gqlerrors.FormattedError{
				gqlerrors.FormatError(err),
			},
		}
	}
	return ExecuteQuery(ctx, query, schema, variables)
}

// ValidateQueryDepth validates a query against the depth limit
func ValidateQueryDepth(query string, maxDepth int) error {
	document, err := parser.Parse(parser.ParseParams{
		Source: query,
	})
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}

	if depth := queryDepth(document); depth > maxDepth {
		return fmt.Errorf("query depth %d exceeds maximum allowed depth %d", depth, maxDepth)
	}
	return nil
}

func queryDepth(document *ast.Document) int {
	maxDepth := 0
	for _, definition := range document.Definitions {
		if def, ok := definition.(*ast.OperationDefinition); ok {
			if d := selectionSetDepth(def.SelectionSet, 1); d > maxDepth {
				maxDepth = d
			}
		}
	}
	return maxDepth
}

func selectionSetDepth(set *ast.SelectionSet, current int) int {
	if set == nil || len(set.Selections) == 0 {
		return current
	}

	maxDepth := current
	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name.Value, "__") || sel.SelectionSet == nil {
				continue
			}
			if d := selectionSetDepth(sel.SelectionSet, current+1); d > maxDepth {
				maxDepth = d
			}
		case *ast.InlineFragment:
			if d := selectionSetDepth(sel.SelectionSet, current); d > maxDepth {
				maxDepth = d
			}
		case *ast.FragmentSpread:
			if maxDepth < current+1 {
				maxDepth = current + 1
			}
		}
	}
	return maxDepth
}
