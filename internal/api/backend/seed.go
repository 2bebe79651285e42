package backend

import (
	"context"
	"fmt"

	"github.com/skybi/compliance-console/internal/compliance"
)

// demoRules is the rule catalogue seeded into an empty backend
var demoRules = []compliance.RuleDraft{
	{
		RuleID:   "NYDFS-500.12",
		Category: compliance.RuleCategorySecurity,
		RuleText: `Multi-factor authentication shall be utilized for any individual accessing any information systems from an external network.
when: workflow_type == "DATA_ACCESS_REQUEST"
when: attributes.network_origin == "external"
must: attributes.mfa_verified == true`,
		Severity: compliance.SeverityHigh,
		Version:  "2023.1",
	},
	{
		RuleID:   "NAIC-Claims-Ack",
		Category: compliance.RuleCategoryOperational,
		RuleText: `Every insurer shall acknowledge the receipt of a claim notification.
when: workflow_type == "CLAIM_PROCESSING"
must: attributes.acknowledgment_sent == true`,
		Severity: compliance.SeverityMedium,
		Version:  "1.0",
	},
	{
		RuleID:   "NYDFS-500.17",
		Category: compliance.RuleCategorySecurity,
		RuleText: `Each covered entity shall notify the superintendent as promptly as possible but in no event later than 72 hours from a determination that a cybersecurity event has occurred.
when: attributes.cybersecurity_event == true
must: attributes.hours_to_notification <= 72`,
		Severity: compliance.SeverityHigh,
		Version:  "2023.1",
	},
	{
		RuleID:   "HIPAA-164.502(b)",
		Category: compliance.RuleCategoryPrivacy,
		RuleText: `When using or disclosing protected health information, a covered entity must limit it to the minimum necessary to accomplish the intended purpose.
when: attributes.phi_access == true
must: attributes.minimum_necessary == true
unless: attributes.treatment_purpose == true`,
		Severity: compliance.SeverityHigh,
		Version:  "1.0",
	},
	{
		RuleID:   "GLBA-313.4",
		Category: compliance.RuleCategoryPrivacy,
		RuleText: `A financial institution must provide a clear and conspicuous privacy notice to a customer when the customer relationship is established.
when: workflow_type == "POLICY_ISSUANCE"
must: attributes.privacy_notice_sent == true`,
		Severity: compliance.SeverityMedium,
		Version:  "1.0",
	},
}

// seedRules creates every demo rule that is not registered yet
func (service *Service) seedRules(ctx context.Context) error {
	created := 0
	for i := range demoRules {
		draft := demoRules[i]
		existing, err := service.Storage.Rules().GetByRuleID(ctx, draft.RuleID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, _, detail, err := service.createRule(ctx, &draft); err != nil {
			return err
		} else if detail != "" {
			return fmt.Errorf("rule %s: %s", draft.RuleID, detail)
		}
		created++
	}
	service.Logger.Info().Int("amount", created).Msg("seeded the demo rules")
	return nil
}
