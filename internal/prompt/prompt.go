// Package prompt renders grounded prompts from a question and retrieved
// context chunks.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"edurag/internal/domain"
)

const instruction = "Answer the question based solely on the information provided in the context above. " +
	"If the context doesn't contain enough information, say so."

// Build renders a prompt with the chunks as a numbered context list, in
// the order given, followed by the question and a fixed instruction.
// It is a pure function: identical inputs yield byte-identical output.
// Chunk order is never changed here; retrieval owns the ranking.
func Build(question string, chunks []domain.RetrievedChunk) string {
	var context strings.Builder
	for i, ch := range chunks {
		if i > 0 {
			context.WriteString("\n\n")
		}
		fmt.Fprintf(&context, "[%d] %s", i+1, ch.Text)
	}

	return fmt.Sprintf(`Based on the following context, answer the question.

Context:
%s

Question: %s

%s`, context.String(), question, instruction)
}

// quizChunkLimit caps how much of each chunk enters the quiz prompt;
// quiz generation favors speed over exhaustive context.
const quizChunkLimit = 300

// Quiz renders a prompt asking for numQuestions multiple-choice
// questions over the chunks, with the expected JSON shape spelled out.
// Chunks beyond the first five are ignored and each is truncated, since
// quiz generation runs against smaller, faster models.
func Quiz(numQuestions int, chunks []domain.RetrievedChunk) string {
	var context strings.Builder
	for i, ch := range chunks {
		if i == 5 {
			break
		}
		if i > 0 {
			context.WriteString("\n\n")
		}
		fmt.Fprintf(&context, "[%d] %s", i+1, truncate(ch.Text, quizChunkLimit))
	}

	return fmt.Sprintf(`Generate %d quiz questions from this content.

CONTENT:
%s

Create %d multiple choice questions. Each question has 4 options.

JSON format only:
{
  "questions": [
    {
      "question": "Your question here?",
      "options": ["A", "B", "C", "D"],
      "answer": "A",
      "explanation": "Why A is correct"
    }
  ]
}

Generate now:`, numQuestions, context.String(), numQuestions)
}

// truncate shortens text to at most limit bytes without splitting a
// UTF-8 sequence.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
