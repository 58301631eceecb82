package graphql

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// maxRequestBytes caps a query body; graph documents travel inside it
const maxRequestBytes = 16 << 20

// GraphQLRequest is the POST body
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse is the reply body. Field errors come back with status 200.
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError is one reported error
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLHandler serves the schema over HTTP POST
type GraphQLHandler struct {
	schema   graphql.Schema
	maxDepth int
}

// NewGraphQLHandler wraps schema with the default depth limit
func NewGraphQLHandler(schema graphql.Schema) *GraphQLHandler {
	return &GraphQLHandler{schema: schema, maxDepth: DefaultMaxDepth}
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeGraphQL(w, http.StatusMethodNotAllowed, GraphQLResponse{
			Errors: []GraphQLError{{Message: "only POST is supported"}},
		})
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeGraphQL(w, http.StatusBadRequest, GraphQLResponse{
			Errors: []GraphQLError{{Message: "invalid request body: " + err.Error()}},
		})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeGraphQL(w, http.StatusBadRequest, GraphQLResponse{
			Errors: []GraphQLError{{Message: "query is empty"}},
		})
		return
	}

	result := ExecuteWithDepthLimit(r.Context(), h.schema, req.Query, h.maxDepth, req.Variables)
	writeGraphQL(w, http.StatusOK, GraphQLResponse{
		Data:   result.Data,
		Errors: convertErrors(result.Errors),
	})
}

func convertErrors(errs []gqlerrors.FormattedError) []GraphQLError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]GraphQLError, len(errs))
	for i, e := range errs {
		out[i] = GraphQLError{Message: e.Message, Path: e.Path}
	}
	return out
}

func writeGraphQL(w http.ResponseWriter, status int, resp GraphQLResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
