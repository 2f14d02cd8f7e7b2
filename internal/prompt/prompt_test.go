package prompt

import (
	"strings"
	"testing"
)

func TestRecommendationIsPure(t *testing.T) {
	in := Inputs{
		LendersData:         "Axis Bank:\n- Interest Rate: 10.5%",
		StudentDetails:      `{"name": "Asha"}`,
		SimilarCases:        "none",
		MatchingLenders:     "Prodigy Finance",
		ConversationHistory: "student: hi",
		StudentMessage:      "What are my options?",
	}

	first := Recommendation(in)
	second := Recommendation(in)
	if first != second {
		t.Fatalf("Recommendation() is not deterministic")
	}

	for _, want := range []string{
		in.LendersData,
		in.StudentDetails,
		in.SimilarCases,
		in.MatchingLenders,
		in.ConversationHistory,
		in.StudentMessage,
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("rendered prompt missing %q", want)
		}
	}
	if strings.Contains(first, "{lenders_data}") || strings.Contains(first, "{student_message}") {
		t.Fatalf("rendered prompt still contains placeholders:\n%s", first)
	}
}

func TestFollowupSubstitution(t *testing.T) {
	out := Followup("student: hi\ncounselor: hello", "What about collateral?")
	if !strings.Contains(out, "student: hi\ncounselor: hello") {
		t.Fatalf("Followup() missing conversation history")
	}
	if !strings.Contains(out, "What about collateral?") {
		t.Fatalf("Followup() missing query")
	}
	if strings.Contains(out, "{conversation_history}") || strings.Contains(out, "{query}") {
		t.Fatalf("Followup() still contains placeholders:\n%s", out)
	}

	if out != Followup("student: hi\ncounselor: hello", "What about collateral?") {
		t.Fatalf("Followup() is not deterministic")
	}
}
