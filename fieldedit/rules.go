package fieldedit

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/framewell/tracker/dataaccess"
)

// Rules validates field values with CEL expressions before anything is sent
// to the collaborator. Each expression sees a single string variable "value"
// and must evaluate to a boolean; false rejects the edit.
type Rules struct {
	mu    sync.RWMutex
	rules map[string]string
	cache map[string]cel.Program

	env *cel.Env
}

// DefaultRules covers the scalar fields every entity type carries. Names are
// required; status must be one of the known labels (the store tolerates
// unknown labels on read, but we refuse to write one).
func DefaultRules() (*Rules, error) {
	r, err := NewRules(map[string]string{
		"name":   `value != ''`,
		"status": `value in ['waiting', 'in_progress', 'final']`,
	})
	if err != nil {
		return nil, fmt.Errorf("default rules: %w", err)
	}
	return r, nil
}

// NewRules compiles nothing up front; expressions are compiled on first use
// and cached.
func NewRules(rules map[string]string) (*Rules, error) {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	if rules == nil {
		rules = make(map[string]string)
	}
	return &Rules{
		rules: rules,
		cache: make(map[string]cel.Program),
		env:   env,
	}, nil
}

// Set adds or replaces the rule for a field.
func (r *Rules) Set(field, expr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[field] = expr
	delete(r.cache, field)
}

// Validate checks value against the field's rule, if one exists. A failing
// rule yields a ValidationError; fields without a rule always pass. A rule
// that fails to compile or evaluate also rejects the edit, since we cannot
// prove the value acceptable.
func (r *Rules) Validate(field, value string) error {
	r.mu.RLock()
	expr, ok := r.rules[field]
	prg := r.cache[field]
	r.mu.RUnlock()

	if !ok {
		return nil
	}

	if prg == nil {
		var err error
		prg, err = r.compile(expr)
		if err != nil {
			return &dataaccess.ValidationError{Field: field, Message: fmt.Sprintf("rule error: %v", err)}
		}
		r.mu.Lock()
		r.cache[field] = prg
		r.mu.Unlock()
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"value": value,
	})
	if err != nil {
		return &dataaccess.ValidationError{Field: field, Message: fmt.Sprintf("rule error: %v", err)}
	}

	pass, ok := out.Value().(bool)
	if !ok {
		return &dataaccess.ValidationError{Field: field, Message: fmt.Sprintf("rule did not return boolean, got %T", out.Value())}
	}
	if !pass {
		return &dataaccess.ValidationError{Field: field, Message: "value rejected"}
	}
	return nil
}

func (r *Rules) compile(expr string) (cel.Program, error) {
	ast, issues := r.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	prg, err := r.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	return prg, nil
}
