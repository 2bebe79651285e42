package reasoning

import (
	"fmt"
	"strings"

	"github.com/skybi/compliance-console/internal/compliance"
)

// Protocol step names, in the order they are recorded
const (
	StepApplicability = "Applicability Check"
	StepConditions    = "Condition Evaluation"
	StepObligations   = "Obligation Validation"
	StepExceptions    = "Exception Handling"
	StepViolation     = "Violation Detection"
)

// Evaluation represents the result of evaluating one structured rule against a workflow event
type Evaluation struct {
	RuleID string
	Status compliance.Outcome
	Steps  []compliance.TraceStep
}

// Evaluate runs the reasoning protocol for every rule against the workflow event.
// Any failing expression aborts the whole evaluation; callers are expected to degrade to a manual review.
func (reasoner *Reasoner) Evaluate(workflow *compliance.Workflow, rules []*compliance.StructuredRule) ([]*Evaluation, error) {
	env := environment(workflow)
	evaluations := make([]*Evaluation, 0, len(rules))
	for _, rule := range rules {
		evaluation, err := reasoner.evaluateRule(rule, env)
		if err != nil {
			return nil, fmt.Errorf("rule %s (version %s): %w", rule.RuleID, rule.Version, err)
		}
		evaluations = append(evaluations, evaluation)
	}
	return evaluations, nil
}

func (reasoner *Reasoner) evaluateRule(rule *compliance.StructuredRule, env map[string]any) (*Evaluation, error) {
	evaluation := &Evaluation{
		RuleID: rule.RuleID,
		Status: compliance.OutcomeCompliant,
	}

	// Applicability: every condition has to hold
	conditionResults, applicable, err := reasoner.checkAll(rule.ApplicabilityConditions, env, true)
	if err != nil {
		return nil, err
	}
	if !applicable {
		evaluation.Steps = append(evaluation.Steps,
			compliance.TraceStep{Step: StepApplicability, Result: "Not Applicable", Detail: strings.Join(conditionResults, "; ")},
			compliance.TraceStep{Step: StepViolation, Result: "No Violation", Detail: "The rule does not apply to this workflow."},
		)
		return evaluation, nil
	}
	if len(rule.ApplicabilityConditions) == 0 {
		evaluation.Steps = append(evaluation.Steps,
			compliance.TraceStep{Step: StepApplicability, Result: "Applicable", Detail: "The rule applies to every workflow."},
			compliance.TraceStep{Step: StepConditions, Result: "No Conditions"},
		)
	} else {
		evaluation.Steps = append(evaluation.Steps,
			compliance.TraceStep{Step: StepApplicability, Result: "Applicable"},
			compliance.TraceStep{Step: StepConditions, Result: "Conditions Met", Detail: strings.Join(conditionResults, "; ")},
		)
	}

	// Obligations: every obligation has to hold
	obligationResults, fulfilled, err := reasoner.checkAll(rule.Obligations, env, true)
	if err != nil {
		return nil, err
	}
	if fulfilled {
		evaluation.Steps = append(evaluation.Steps, compliance.TraceStep{Step: StepObligations, Result: "Fulfilled", Detail: strings.Join(obligationResults, "; ")})
	} else {
		evaluation.Steps = append(evaluation.Steps, compliance.TraceStep{Step: StepObligations, Result: "Unfulfilled", Detail: strings.Join(obligationResults, "; ")})
	}

	// Exceptions: a single matching exception suffices
	exceptionResults, excepted, err := reasoner.checkAll(rule.Exceptions, env, false)
	if err != nil {
		return nil, err
	}
	if excepted {
		evaluation.Steps = append(evaluation.Steps, compliance.TraceStep{Step: StepExceptions, Result: "Exception Applies", Detail: strings.Join(exceptionResults, "; ")})
	} else {
		evaluation.Steps = append(evaluation.Steps, compliance.TraceStep{Step: StepExceptions, Result: "No Exception", Detail: strings.Join(exceptionResults, "; ")})
	}

	if !fulfilled && !excepted {
		evaluation.Status = compliance.OutcomeNonCompliant
		evaluation.Steps = append(evaluation.Steps, compliance.TraceStep{Step: StepViolation, Result: "Violation", Detail: "At least one obligation is not fulfilled and no exception applies."})
	} else {
		evaluation.Steps = append(evaluation.Steps, compliance.TraceStep{Step: StepViolation, Result: "No Violation"})
	}
	return evaluation, nil
}

// checkAll evaluates all expressions and reports each result.
// With all set, the combined result is a conjunction (true for no expressions), otherwise a disjunction (false for no
// expressions).
func (reasoner *Reasoner) checkAll(expressions []string, env map[string]any, all bool) ([]string, bool, error) {
	results := make([]string, 0, len(expressions))
	combined := all
	for _, expression := range expressions {
		value, err := reasoner.check(expression, env)
		if err != nil {
			return nil, false, err
		}
		results = append(results, fmt.Sprintf("%s = %t", expression, value))
		if all {
			combined = combined && value
		} else {
			combined = combined || value
		}
	}
	return results, combined, nil
}

func environment(workflow *compliance.Workflow) map[string]any {
	env := make(map[string]any, len(workflow.Attributes)+5)
	for key, value := range workflow.Attributes {
		env[key] = value
	}
	attributes := workflow.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	env["workflow_id"] = workflow.WorkflowID
	env["workflow_type"] = string(workflow.WorkflowType)
	env["actor_id"] = workflow.ActorID
	env["source_system"] = workflow.SourceSystem
	env["attributes"] = attributes
	return env
}
