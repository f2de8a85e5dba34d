package v1

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/blockwise/store"
)

// newBlockFilterEnv creates the CEL environment for list filters. A filter
// may reference category (string), completed (bool), date (string) and
// hour (int), e.g. `category == "work" && !completed`.
func newBlockFilterEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("category", cel.StringType),
		cel.Variable("completed", cel.BoolType),
		cel.Variable("date", cel.StringType),
		cel.Variable("hour", cel.IntType),
	)
}

// compileBlockFilter compiles filterStr into a per-block predicate. The
// expression is compiled once per request and evaluated per block.
func compileBlockFilter(filterStr string) (func(*store.TimeBlock) (bool, error), error) {
	env, err := newBlockFilterEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	celAST, issues := env.Compile(filterStr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter expression: %s", filterStr)
	}
	if celAST.OutputType() != cel.BoolType {
		return nil, errors.Errorf("filter must evaluate to a boolean, got %s", celAST.OutputType())
	}

	program, err := env.Program(celAST)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}

	return func(block *store.TimeBlock) (bool, error) {
		out, _, err := program.Eval(map[string]any{
			"category":  block.Category,
			"completed": block.Completed,
			"date":      block.Date,
			"hour":      int64(block.Hour),
		})
		if err != nil {
			return false, errors.Wrap(err, "failed to evaluate filter")
		}
		keep, ok := out.Value().(bool)
		if !ok {
			return false, errors.Errorf("filter produced %T, want bool", out.Value())
		}
		return keep, nil
	}, nil
}
