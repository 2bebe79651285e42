package compliance

// WorkflowType represents the kind of business workflow an event was emitted by
type WorkflowType string

const (
	WorkflowTypeClaimProcessing    WorkflowType = "CLAIM_PROCESSING"
	WorkflowTypePolicyIssuance     WorkflowType = "POLICY_ISSUANCE"
	WorkflowTypeDataAccessRequest  WorkflowType = "DATA_ACCESS_REQUEST"
	WorkflowTypeApprovalEscalation WorkflowType = "APPROVAL_ESCALATION"
)

// WorkflowTypes lists all known workflow types
var WorkflowTypes = []WorkflowType{
	WorkflowTypeClaimProcessing,
	WorkflowTypePolicyIssuance,
	WorkflowTypeDataAccessRequest,
	WorkflowTypeApprovalEscalation,
}

// Valid checks if the workflow type is one of the known ones
func (typ WorkflowType) Valid() bool {
	for _, known := range WorkflowTypes {
		if typ == known {
			return true
		}
	}
	return false
}

// RuleCategory represents the regulatory area a rule belongs to
type RuleCategory string

const (
	RuleCategoryPrivacy     RuleCategory = "PRIVACY"
	RuleCategorySecurity    RuleCategory = "SECURITY"
	RuleCategoryOperational RuleCategory = "OPERATIONAL"
	RuleCategoryFinancial   RuleCategory = "FINANCIAL"
)

// RuleCategories lists all known rule categories
var RuleCategories = []RuleCategory{
	RuleCategoryPrivacy,
	RuleCategorySecurity,
	RuleCategoryOperational,
	RuleCategoryFinancial,
}

// Valid checks if the category is one of the known ones
func (category RuleCategory) Valid() bool {
	for _, known := range RuleCategories {
		if category == known {
			return true
		}
	}
	return false
}

// Severity represents how severe a violation of a rule is
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Valid checks if the severity is one of the known ones
func (severity Severity) Valid() bool {
	return severity == SeverityLow || severity == SeverityMedium || severity == SeverityHigh
}

// RuleStatus represents whether a rule takes part in audits
type RuleStatus string

const (
	RuleStatusActive     RuleStatus = "ACTIVE"
	RuleStatusDeprecated RuleStatus = "DEPRECATED"
)

// Valid checks if the status is one of the known ones
func (status RuleStatus) Valid() bool {
	return status == RuleStatusActive || status == RuleStatusDeprecated
}

// Outcome represents the verdict of a compliance decision
type Outcome string

const (
	OutcomeCompliant      Outcome = "COMPLIANT"
	OutcomeNonCompliant   Outcome = "NON_COMPLIANT"
	OutcomeRequiresReview Outcome = "REQUIRES_REVIEW"
)

// Outcomes lists all known outcomes in the order they are presented
var Outcomes = []Outcome{
	OutcomeCompliant,
	OutcomeNonCompliant,
	OutcomeRequiresReview,
}

// Valid checks if the outcome is one of the known ones
func (outcome Outcome) Valid() bool {
	return outcome == OutcomeCompliant || outcome == OutcomeNonCompliant || outcome == OutcomeRequiresReview
}
