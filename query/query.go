// Package query evaluates JSONPath expressions against the JSON form of a
// model, e.g. `$.containers[?(@.systemId=="shop")].id`.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/c360studio/c4/export"
	"github.com/c360studio/c4/model"
)

// ErrEmptyExpression is returned for a blank expression.
var ErrEmptyExpression = errors.New("empty jsonpath expression")

// Query is a compiled JSONPath expression. It is safe for concurrent use.
type Query struct {
	expr string
	eval func(context.Context, any) (any, error)
}

// Compile parses expr.
func Compile(expr string) (*Query, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	eval, err := jsonpath.New(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath %q: %w", expr, err)
	}
	return &Query{expr: expr, eval: eval}, nil
}

// String returns the expression text.
func (q *Query) String() string { return q.expr }

// Eval runs the query against m.
func (q *Query) Eval(ctx context.Context, m *model.Model) (any, error) {
	doc, err := Document(m)
	if err != nil {
		return nil, err
	}
	return q.EvalDocument(ctx, doc)
}

// EvalDocument runs the query against an already decoded document.
func (q *Query) EvalDocument(ctx context.Context, doc any) (any, error) {
	val, err := q.eval(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %s: %w", q.expr, err)
	}
	return val, nil
}

// Run compiles expr and evaluates it against m.
func Run(ctx context.Context, m *model.Model, expr string) (any, error) {
	q, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return q.Eval(ctx, m)
}

// Document returns m as generic JSON values (maps, slices, float64...), the
// shape JSONPath evaluates over.
func Document(m *model.Model) (any, error) {
	data, err := export.JSON(m)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return doc, nil
}

// Format renders a query result for terminal output. Strings print bare,
// a single-element result list is unwrapped, anything else is indented JSON.
func Format(v any) (string, error) {
	if arr, ok := v.([]any); ok && len(arr) == 1 {
		v = arr[0]
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
