package reasoning

import (
	"github.com/skybi/compliance-console/internal/compliance"
)

// DiagnosticRuleID names the trace entry recorded when the reasoning itself failed
const DiagnosticRuleID = "System Diagnostic"

// Decide derives the final outcome from the rule evaluations.
// No evaluations means nothing could be violated. A single violation makes the whole workflow non-compliant.
func Decide(evaluations []*Evaluation) compliance.Outcome {
	if len(ViolatedRules(evaluations)) > 0 {
		return compliance.OutcomeNonCompliant
	}
	return compliance.OutcomeCompliant
}

// ViolatedRules returns the IDs of all rules evaluated as non-compliant, in evaluation order
func ViolatedRules(evaluations []*Evaluation) []string {
	violated := []string{}
	for _, evaluation := range evaluations {
		if evaluation.Status == compliance.OutcomeNonCompliant {
			violated = append(violated, evaluation.RuleID)
		}
	}
	return violated
}

// Trace converts the evaluations into a reasoning trace
func Trace(evaluations []*Evaluation) []compliance.TraceEntry {
	trace := make([]compliance.TraceEntry, 0, len(evaluations))
	for _, evaluation := range evaluations {
		trace = append(trace, compliance.TraceEntry{
			RuleID: evaluation.RuleID,
			Steps:  evaluation.Steps,
		})
	}
	return trace
}

// FailureTrace builds the reasoning trace recorded when the evaluation failed and the decision needs a manual review
func FailureTrace(err error) []compliance.TraceEntry {
	return []compliance.TraceEntry{
		{
			RuleID: DiagnosticRuleID,
			Steps: []compliance.TraceStep{
				{
					Step:   "Reasoning Protocol",
					Result: "Execution Failed",
					Detail: "The reasoning engine encountered an error: " + err.Error() + ". A manual review is required.",
				},
			},
		},
	}
}
