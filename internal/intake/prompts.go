package intake

import "fmt"

// stepPrompts are the questions asked when a step is first reached.
// The scheduling prompt is only the fallback; when slot inventory is
// reachable the engine narrates actual open times instead.
var stepPrompts = map[Step]string{
	StepName:           "May I have your first and last name, please?",
	StepInsurancePayer: "Which insurance provider are you with?",
	StepInsuranceID:    "What is your insurance member ID?",
	StepTopicOfCall:    "What is the reason for your visit today?",
	StepAddress:        "What is your home address? Please include the street, city, state, and zip code.",
	StepPhone:          "What is the best phone number to reach you, including the area code?",
	StepEmail:          "What email address should we send your confirmation to?",
	StepSchedule:       "Which doctor would you like to see, and what day and time work best for you?",
}

const (
	greetingPrompt = "Thank you for calling. I can help get you set up for a visit. "

	continueAddressPrompt = "Go on, I'm listening."

	technicalRetryPrompt = "I'm sorry, we're having technical difficulties on our end. Could you repeat that?"

	technicalAbortPrompt = "I'm sorry, we're having technical difficulties and cannot continue right now. Please call back later. Goodbye."

	abortPrompt = "I'm sorry, I wasn't able to understand that. Please call back and our staff will be happy to help you. Goodbye."

	saveFailedPrompt = "I'm sorry, something went wrong while saving your information. Please call back so we can finish setting up your visit. Goodbye."

	slotTakenPrompt = "I'm sorry, that time was just taken. Could you pick a different day or time?"
)

func retryPrompt(reason, question string) string {
	if reason == "" {
		return "I'm sorry, I didn't catch that. " + question
	}
	return fmt.Sprintf("I'm sorry, %s. %s", reason, question)
}

func conflictPrompt(reason string) string {
	if reason == "" {
		return slotTakenPrompt
	}
	return fmt.Sprintf("I'm sorry, %s. Could you pick a different day or time?", reason)
}
