package service

import (
	"fmt"
	"strings"

	"github.com/nextdocs/docsgpt/internal/domain"
)

// systemPrompt is the fixed persona sent as the first message of every
// composed prompt.
const systemPrompt = `Context:
You are NextJS Docs GPT, a chatbot that knows up to date information about NextJS.
Your task is to create simple, easy to understand responses to questions about NextJS.
You are good at pedagogy and you know how to explain complex concepts in simple terms.
You are a senior NextJS developer and you know the framework inside out.

Goal:
Create a response to the user's question about NextJS.

Criteria:
To answer the question, you will be given a context of the documentation of the NextJS framework.
You need to use this context to create a response to the user's question.

Response format:
* Short
* To the point
* With examples
* With metaphors
* Using markdown`

// PromptComposer assembles the ordered message list sent to the
// completion model.
type PromptComposer struct{}

// Compose returns, in order: the persona message, the conversation
// history minus its last message, a system message carrying the
// retrieved context, and the latest user message verbatim.
//
// History roles are coerced to user/assistant: anything that is not an
// assistant turn (including system-role history entries) is forwarded
// as a user turn. The input conversation is never mutated.
func (PromptComposer) Compose(conversation []domain.ChatMessage, chunks []domain.DocumentChunk) []domain.ChatMessage {
	last := conversation[len(conversation)-1]

	messages := make([]domain.ChatMessage, 0, len(conversation)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})

	for _, m := range conversation[:len(conversation)-1] {
		role := m.Role
		if role != domain.RoleAssistant {
			role = domain.RoleUser
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: m.Content})
	}

	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: contextBlock(chunks)})
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: last.Content})

	return messages
}

// contextBlock renders each chunk as "<url>:\n\n<text>" under a
// Context heading, chunks joined by a blank line. An empty corpus
// yields an empty-bodied context message, not an omitted one.
func contextBlock(chunks []domain.DocumentChunk) string {
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.URL() + ":\n\n" + chunk.Text
	}
	return "Context:\n\n" + strings.Join(parts, "\n\n")
}

// SourcesFooter renders the citation block appended after the last
// completion fragment: one markdown list item per retrieved chunk, in
// retrieval order, linking each chunk's URL to itself.
func SourcesFooter(chunks []domain.DocumentChunk) string {
	var b strings.Builder
	b.WriteString("\n\n### Source\n\n")
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "* [%s](%s)\n", chunk.URL(), chunk.URL())
	}
	return b.String()
}
