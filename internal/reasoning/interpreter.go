// Package reasoning evaluates workflow events against structured compliance rules.
//
// Rules are written as plain text in which every clause line carries a prefix:
//
//	when:   attributes.amount > 10000             (applicability condition)
//	must:   attributes.supervisor_approved == true (obligation)
//	unless: attributes.emergency == true           (exception)
//
// Lines without a prefix are prose and are ignored. Every clause is an expr-lang boolean expression evaluated against
// the workflow event: workflow_id, workflow_type, actor_id, source_system, attributes, and every attribute also as a
// top-level variable.
package reasoning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/hashmap"
)

var (
	prefixWhen   = "when:"
	prefixMust   = "must:"
	prefixUnless = "unless:"
)

// ErrNoObligations is returned when a rule text does not contain a single obligation clause
var ErrNoObligations = errors.New("the rule text contains no 'must:' clause")

// Reasoner interprets rules and evaluates workflow events against them.
// Compiled expressions are cached, so a Reasoner should be shared.
type Reasoner struct {
	programs hashmap.Map[string, *vm.Program]
}

// NewReasoner creates a new reasoner with an empty expression cache
func NewReasoner() *Reasoner {
	return &Reasoner{
		programs: hashmap.NewNormal[string, *vm.Program](),
	}
}

// Interpret derives the structured interpretation of a rule's current version
func (reasoner *Reasoner) Interpret(rule *compliance.Rule) (*compliance.StructuredRule, error) {
	structured := &compliance.StructuredRule{
		RuleID:                  rule.RuleID,
		Version:                 rule.Version,
		ApplicabilityConditions: []string{},
		Obligations:             []string{},
		Exceptions:              []string{},
		Severity:                rule.Severity,
		RawOutput:               rule.RuleText,
	}

	for i, line := range strings.Split(rule.RuleText, "\n") {
		line = strings.TrimSpace(line)
		var target *[]string
		var clause string
		switch lower := strings.ToLower(line); {
		case strings.HasPrefix(lower, prefixWhen):
			target, clause = &structured.ApplicabilityConditions, line[len(prefixWhen):]
		case strings.HasPrefix(lower, prefixMust):
			target, clause = &structured.Obligations, line[len(prefixMust):]
		case strings.HasPrefix(lower, prefixUnless):
			target, clause = &structured.Exceptions, line[len(prefixUnless):]
		default:
			continue
		}

		clause = strings.TrimSpace(clause)
		if clause == "" {
			return nil, fmt.Errorf("line %d: empty clause", i+1)
		}
		if _, err := reasoner.compile(clause); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		*target = append(*target, clause)
	}

	if len(structured.Obligations) == 0 {
		return nil, ErrNoObligations
	}
	return structured, nil
}

func (reasoner *Reasoner) compile(expression string) (*vm.Program, error) {
	if program, ok := reasoner.programs.Lookup(expression); ok {
		return program, nil
	}
	program, err := expr.Compile(expression,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}
	reasoner.programs.Set(expression, program)
	return program, nil
}

func (reasoner *Reasoner) check(expression string, env map[string]any) (bool, error) {
	program, err := reasoner.compile(expression)
	if err != nil {
		return false, err
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluating '%s': %w", expression, err)
	}
	value, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("evaluating '%s': expected a boolean, got %T", expression, result)
	}
	return value, nil
}
