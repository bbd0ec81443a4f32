package extract

import (
	"fmt"

	"github.com/intakehq/voice-intake/internal/validate"
)

// systemPrompt frames every extraction request.
const systemPrompt = "You are a helpful and accurate medical secretary with expertise in health insurance."

// fieldPrompts convert raw speech transcripts into the normalized
// text the shape validators expect. Each prompt must yield ONLY the
// value, with no labels or explanation.
var fieldPrompts = map[validate.Kind]string{
	validate.KindName: "Extract the caller's name from the transcript. " +
		"If only one name is given, return just that name. " +
		"Return only the name words, nothing else.",

	validate.KindInsurancePayer: "Extract the member name as printed on the caller's insurance card from the transcript. " +
		"Return only the name words, nothing else.",

	validate.KindInsuranceID: "The caller is spelling out their insurance ID. " +
		"Convert spoken digits to numerals ('one' = 1, 'two' = 2, ... 'zero' = 0) " +
		"and letter names to uppercase letters ('a' = A, 'b' = B, ...). " +
		"Combine all characters into one string with no spaces. " +
		"For transcript 'one two three d', return '123D'. " +
		"Return only the converted ID, or an empty string if nothing usable was said.",

	validate.KindTopicOfCall: "Summarize in one short sentence why the caller wants to see the doctor, " +
		"based on the transcript. Return only the summary.",

	validate.KindPhone: "Extract the phone number from the transcript. The caller may say digits with " +
		"spaces, dashes, or the word 'dash' in between, and may or may not include the US country code. " +
		"Return the number in E.164 format (e.g., +19177012642). Return only the number.",

	validate.KindEmail: "Extract the email address from the transcript. The caller may say 'at' instead " +
		"of '@' and 'dot' instead of '.'. Convert those into the correct characters and return the " +
		"address in standard form (e.g., user@domain.com). Return only the email address.",
}

const addressPrompt = `You are extracting structured address information from patient speech.

Extract only what the caller explicitly said. Do not guess or invent address parts.
If a field is not clearly stated, leave it blank and include it in "missing_fields".

Convert spelled-out numbers to digits (e.g., "twelve fourty five" -> "1245").

Respond with a strict JSON object:
{
  "street": "street number and name, e.g. 1245 Hayes Street",
  "city": "city name",
  "state": "two-letter abbreviation, e.g. CA",
  "zip": "5-digit ZIP code",
  "missing_fields": ["any of street, city, state, zip that were missing or unclear"]
}

Only return the JSON object.`

const schedulePrompt = `Extract the scheduling request from the patient's message.

Return a strict JSON object:
{
  "doctor_name": "string, e.g. 'john'",
  "start": "start time in ISO 8601, e.g. '2026-09-03T15:00:00'",
  "end": "end time in ISO 8601",
  "missing_fields": ["any of doctor_name, start, end that were not stated"]
}

If all fields are present, return an empty list for "missing_fields".
Only return the JSON object.`

func narratePrompt(openHour, closeHour, windowDays int) string {
	return fmt.Sprintf(
		"Tell the patient which appointment times are open, based on the open slots listed below. "+
			"Working hours are %d:00 to %d:00. Only mention times within the next %d days. "+
			"Be brief and speak naturally, as this will be read aloud over the phone.",
		openHour, closeHour, windowDays)
}
