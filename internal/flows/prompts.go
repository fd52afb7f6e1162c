package flows

import "fmt"

const carePlanPrompt = `You are a medical care assistant. Based on the following discharge document, create a structured post-surgery care plan.

Please provide a helpful care plan with these sections:
1. Medication Schedule: List medications with dosage, frequency, and special instructions
2. Activity Guidelines: What activities are allowed/restricted and when
3. Wound Care: How to care for surgical sites and dressings
4. Warning Signs: Symptoms that require immediate medical attention
5. Follow-up Care: Appointment reminders and next steps

Make it clear, practical, and reassuring for a patient recovering at home.
Use bullet points and clear headings for easy reading.`

const questionPromptFormat = `You are a helpful post-surgery care assistant. Answer this patient question with:

1. A supportive, reassuring tone
2. Practical, actionable advice
3. Clear guidance on when to contact healthcare provider
4. Keep response concise but comprehensive
5. Use bullet points for clarity when appropriate

Patient question: %s

Provide a helpful response that addresses their concern while emphasizing safety.`

func questionPrompt(question string) string {
	return fmt.Sprintf(questionPromptFormat, question)
}

// Samples used by the end-to-end self test.
const (
	sampleDischargeDocument = "Patient discharged after knee surgery. Take Ibuprofen 400mg every 6 hours with food. " +
		"Take Amoxicillin 500mg three times daily for 7 days. Short walks recommended every 2 hours. " +
		"No lifting over 10 pounds for 2 weeks. Follow-up appointment in 1 week. " +
		"Watch for fever over 101°F, redness, or unusual swelling around incision site."
	samplePatientQuestion = "How much pain is normal after knee surgery?"

	selfTestCarePlanCommand = "Create a brief care plan for this patient"
	selfTestQuestionCommand = "Answer this patient question helpfully"
	debugAskCommand         = "Say hello in one sentence"
	debugAskContent         = "Test content"
)
