// Package prompt renders the two prompts the service ever sends to the model.
// Both renderers are pure: identical inputs produce identical strings, which
// keeps the pipeline testable without invoking a model.
package prompt

import "strings"

const recommendationTemplate = `You are an experienced loan counselor helping students finance their education abroad.

Available lenders:
{lenders_data}

Student details:
{student_details}

Similar past cases:
{similar_cases}

Lenders matching this student's destination and budget:
{matching_lenders}

Conversation so far:
{conversation_history}

Student's message:
{student_message}

Recommend the most suitable loan options for this student. Explain interest rates,
maximum amounts and collateral requirements in plain language, and state clearly
when a lender is not a fit. Keep the tone warm and practical.`

const followupTemplate = `You are helping a student plan their education loan research.

Conversation so far:
{conversation_history}

The student just asked:
{query}

Suggest two or three short follow-up questions the student should ask next to move
their loan decision forward. Return only the questions, one per line.`

// Inputs carries the context bundle substituted into the recommendation template.
type Inputs struct {
	LendersData         string
	StudentDetails      string
	SimilarCases        string
	MatchingLenders     string
	ConversationHistory string
	StudentMessage      string
}

// Recommendation renders the loan recommendation prompt.
func Recommendation(in Inputs) string {
	r := strings.NewReplacer(
		"{lenders_data}", in.LendersData,
		"{student_details}", in.StudentDetails,
		"{similar_cases}", in.SimilarCases,
		"{matching_lenders}", in.MatchingLenders,
		"{conversation_history}", in.ConversationHistory,
		"{student_message}", in.StudentMessage,
	)
	return r.Replace(recommendationTemplate)
}

// Followup renders the follow-up question prompt.
func Followup(conversationHistory, query string) string {
	r := strings.NewReplacer(
		"{conversation_history}", conversationHistory,
		"{query}", query,
	)
	return r.Replace(followupTemplate)
}
