package intake

import "github.com/intakehq/voice-intake/internal/validate"

// Step identifies one stage of the intake conversation. Steps always
// advance in the fixed order below; there is no skipping ahead, and a
// schedule conflict is the only way to revisit a step.
type Step string

const (
	StepName           Step = "name"
	StepInsurancePayer Step = "insurance_payer"
	StepInsuranceID    Step = "insurance_id"
	StepTopicOfCall    Step = "topic_of_call"
	StepAddress        Step = "address"
	StepPhone          Step = "phone"
	StepEmail          Step = "email"
	StepSchedule       Step = "schedule_appointment"
	StepDone           Step = "done"
)

var stepOrder = []Step{
	StepName,
	StepInsurancePayer,
	StepInsuranceID,
	StepTopicOfCall,
	StepAddress,
	StepPhone,
	StepEmail,
	StepSchedule,
	StepDone,
}

// FirstStep is where every new session starts.
func FirstStep() Step { return stepOrder[0] }

// Next returns the step that follows s. Done is a fixed point.
func (s Step) Next() Step {
	for i, step := range stepOrder {
		if step == s && i < len(stepOrder)-1 {
			return stepOrder[i+1]
		}
	}
	return StepDone
}

// Known reports whether s is one of the defined steps.
func (s Step) Known() bool {
	for _, step := range stepOrder {
		if step == s {
			return true
		}
	}
	return false
}

// fieldKinds maps the simple ask-validate-store steps to their shape
// rule. Address and scheduling are handled by dedicated handlers.
var fieldKinds = map[Step]validate.Kind{
	StepName:           validate.KindName,
	StepInsurancePayer: validate.KindInsurancePayer,
	StepInsuranceID:    validate.KindInsuranceID,
	StepTopicOfCall:    validate.KindTopicOfCall,
	StepPhone:          validate.KindPhone,
	StepEmail:          validate.KindEmail,
}
