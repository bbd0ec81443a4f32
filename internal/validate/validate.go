// Package validate holds the pure shape checks applied to caller
// answers after any speech normalization has already happened.
// Nothing in this package touches the network: spoken-digit repair
// ("nine one seven" -> "917") is the extraction collaborator's job,
// and these checks only judge the normalized text.
package validate

import (
	"regexp"
	"strings"
)

// Kind identifies which shape rule to apply to an utterance.
type Kind string

const (
	KindName           Kind = "name"
	KindInsurancePayer Kind = "insurance_payer"
	KindInsuranceID    Kind = "insurance_id"
	KindTopicOfCall    Kind = "topic_of_call"
	KindPhone          Kind = "phone"
	KindEmail          Kind = "email"
)

var (
	// E.164 US number: +1 followed by exactly 10 digits.
	phoneRE = regexp.MustCompile(`^\+1\d{10}$`)
	// local@domain.tld with no embedded whitespace and a dot after the @.
	emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// Member IDs as printed on insurance cards.
	insuranceIDRE = regexp.MustCompile(`^[A-Za-z0-9]{5,15}$`)
)

// Name is a caller's name split into its components.
type Name struct {
	First string `json:"first_name"`
	Last  string `json:"last_name"`
}

// Full renders the name for display and record keys.
func (n Name) Full() string {
	return strings.TrimSpace(strings.TrimSpace(n.First) + " " + strings.TrimSpace(n.Last))
}

// Result is the outcome of a single shape check.
type Result struct {
	// Value holds the accepted value: Name for name kinds, string otherwise.
	Value any
	Valid bool
	// Reason explains a rejection in words suitable for re-prompting.
	Reason string
}

// Field checks one normalized utterance against the rule for kind.
func Field(kind Kind, text string) Result {
	text = strings.TrimSpace(text)

	switch kind {
	case KindName, KindInsurancePayer:
		return validateName(text)
	case KindPhone:
		if !phoneRE.MatchString(text) {
			return Result{Reason: "phone number must include country code and 10 digits"}
		}
		return Result{Value: text, Valid: true}
	case KindEmail:
		if !emailRE.MatchString(text) {
			return Result{Reason: "email must look like name@example.com"}
		}
		return Result{Value: strings.ToLower(text), Valid: true}
	case KindInsuranceID:
		if !insuranceIDRE.MatchString(text) {
			return Result{Reason: "insurance ID must be 5 to 15 letters and digits"}
		}
		return Result{Value: strings.ToUpper(text), Valid: true}
	case KindTopicOfCall:
		if text == "" {
			return Result{Reason: "please describe the reason for your visit"}
		}
		return Result{Value: text, Valid: true}
	default:
		return Result{Reason: "unknown field kind: " + string(kind)}
	}
}

// validateName accepts any non-empty free text. A single token is
// treated as a first name with an empty last name.
func validateName(text string) Result {
	if text == "" {
		return Result{Reason: "please state your name"}
	}
	parts := strings.Fields(text)
	name := Name{First: parts[0]}
	if len(parts) > 1 {
		name.Last = strings.Join(parts[1:], " ")
	}
	return Result{Value: name, Valid: true}
}
