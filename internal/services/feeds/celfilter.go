package feedsvc

import (
	"encoding/json"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/spaceone/rest-feeds/internal/feed"
)

// celFilter wraps a compiled CEL program evaluated per entry during offset
// resolution. When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("position", cel.IntType),
		cel.Variable("type", cel.StringType),
		cel.Variable("id", cel.StringType),
		cel.Variable("operation", cel.StringType),
		// Parsed JSON payload (map/list/values) for field filtering;
		// null for tombstones.
		cel.Variable("json", cel.DynType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against an entry. Evaluation
// errors reject the entry rather than failing the fetch.
func (f celFilter) Eval(e feed.Entry) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	if len(e.Data) > 0 {
		_ = json.Unmarshal(e.Data, &jsonObj)
	}
	out, _, err := f.prog.Eval(map[string]any{
		"position":  int64(e.Position),
		"type":      e.Type,
		"id":        e.ID,
		"operation": string(e.Operation),
		"json":      jsonObj,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
