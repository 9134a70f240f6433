package tutor

import (
	"fmt"
	"strings"
)

// offTopicSentinel is the phrase the system prompt tells the model to
// open with when the student drifts off subject. The orchestrator strips
// it from the reply and terminates the conversation.
const offTopicSentinel = "[ZMIANA_TEMATU]"

// redirectMessage is the canned reply for messages the heuristic already
// classifies as off-subject, returned without calling the model.
const redirectMessage = "Jestem korepetytorem matematyki i mogę pomagać tylko w tym przedmiocie. " +
	"Wróćmy do Twojego zadania z matematyki!"

// StudentProfile is the optional profile the client collected before the
// session. Free-text fields go through form validation before they are
// allowed into the prompt.
type StudentProfile struct {
	Subject   string `json:"subject,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Problem   string `json:"problem,omitempty"`
	Interests string `json:"interests,omitempty"`
}

// buildSystemPrompt assembles the persona, constraints and
// topic-consistency instructions, personalized with the student profile.
func buildSystemPrompt(profile StudentProfile) string {
	var b strings.Builder
	b.WriteString("Jesteś cierpliwym i przyjaznym korepetytorem matematyki dla polskich uczniów. ")
	b.WriteString("Tłumaczysz krok po kroku, prostym językiem, i naprowadzasz ucznia na rozwiązanie zamiast podawać gotowe odpowiedzi. ")
	b.WriteString("Odpowiadasz wyłącznie po polsku.\n\n")

	b.WriteString("Zasady:\n")
	b.WriteString("- Pomagasz tylko w matematyce.\n")
	b.WriteString("- Nie prosisz o dane osobowe i nie komentujesz ich, jeśli się pojawią.\n")
	b.WriteString("- Odpowiadasz zwięźle, maksymalnie kilka akapitów.\n")
	b.WriteString(fmt.Sprintf("- Jeśli pytanie nie dotyczy matematyki, zacznij odpowiedź dokładnie od %s i krótko zachęć do powrotu do tematu.\n", offTopicSentinel))

	if profile.Topic != "" {
		b.WriteString(fmt.Sprintf("\nUczeń pracuje nad tematem: %s.", profile.Topic))
	}
	if profile.Problem != "" {
		b.WriteString(fmt.Sprintf("\nUczeń opisał swój problem tak: %s.", profile.Problem))
	}
	if profile.Interests != "" {
		b.WriteString(fmt.Sprintf("\nZainteresowania ucznia (używaj ich w przykładach): %s.", profile.Interests))
	}

	return b.String()
}
