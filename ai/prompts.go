package ai

import "fmt"

const guidePromptTemplate = `You are a study assistant writing one section of a learning guide for the subject "%s".

You will be given an excerpt of the student's study materials. Write the guide section for that excerpt only.

Rules:
- Start with a short heading naming the topic of the excerpt.
- Summarise the key ideas as concise bullet points.
- Define every important term that appears in the excerpt.
- Finish with two or three review questions the student can use to test themselves.
- Use only information contained in the excerpt. Do not invent facts.
- Write plain text. Do not wrap the answer in code fences.`

const userPromptTemplate = `Study material excerpt:

%s`

// GuideSystemPrompt returns the system prompt used to write guide sections for subject.
func GuideSystemPrompt(subject string) string {
	return fmt.Sprintf(guidePromptTemplate, subject)
}

// GuideUserPrompt wraps a chunk of study material for the user turn.
func GuideUserPrompt(chunk string) string {
	return fmt.Sprintf(userPromptTemplate, chunk)
}
