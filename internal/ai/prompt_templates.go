package ai

import (
	"fmt"
	"strings"
)

// Текст промптов общий для всех бэкендов; различается только механика
// получения ранжированных кандидатов.

func buildQuestionPrompt(topicPrompt string, maxWords int) string {
	return fmt.Sprintf(`Generate a natural user request that an AI assistant might receive.

Topic: %q

Generate ONLY the user question (not the answer), a single sentence. Make it sound natural, like a real person asking. The question must be answerable in at most %d words. Do not ask to write code and do not ask to compose an email.

Examples:
- "Can you help me plan a weekend getaway?"
- "What's the best way to cook pasta?"
- "How do I improve my time management skills?"

Your question:`, topicPrompt, maxWords)
}

func buildPunctuatePrompt(path []string) string {
	return fmt.Sprintf(
		"Insert punctuation marks into the following text to make it read naturally. Do NOT add, remove, reorder or change any words - punctuation only. Reply with the punctuated text and nothing else.\n\nText: %s",
		strings.Join(path, " "),
	)
}

func buildScorePrompt(question string, path []string, maxWords int) string {
	return fmt.Sprintf(`Evaluate this answer to the question.

Question: %q
Answer: %q

Rate how relevant the answer is to the question and how adequate it is at a high level. The answer was composed under a hard limit of %d words - do NOT penalize lack of depth or detail, the brevity is enforced by the format, not chosen by the author.

Provide your response as JSON, nothing else:
{
  "score": <number 0-100>,
  "analysis": "<brief explanation of the score>"
}`, question, strings.Join(path, " "), maxWords)
}

func buildReactionPrompt(answerSoFar string, isComplete bool) string {
	return fmt.Sprintf(`You are simulating a human user's emotional reaction to an AI response.

User's response so far: %q
Is complete: %t

Based on the coherence and quality of this response, what would be a realistic human reaction?

- "appreciation" if the response seems good, helpful, or on track
- "dislike" if the response seems off, unhelpful, or frustrating
- "confused" if the response is unclear or doesn't make sense

Respond with ONLY ONE WORD: appreciation, dislike, or confused`, answerSoFar, isComplete)
}

func buildNextWordsSystemPrompt(maxWords, wordsRemaining int) string {
	return fmt.Sprintf(
		"You are an AI assistant answering the user's request. The entire answer must fit in %d words, %d words remain. Be concise and direct. Do not use filler openings like \"Here's\", \"Below is\" or \"An example of\"; get straight to the point.",
		maxWords, wordsRemaining,
	)
}

// buildNextWordsListPrompt - вариант для бэкендов без logprobs: модель просят
// явно перечислить кандидатов следующего слова.
func buildNextWordsListPrompt(question string, path []string, maxWords int) string {
	wordsRemaining := maxWords - len(path)
	contextPrompt := "The response has not started yet. What are the 5 most likely FIRST WORDS to begin answering this request?"
	if len(path) > 0 {
		current := strings.Join(path, " ")
		contextPrompt = fmt.Sprintf("The response has already started with: %q\n\nWhat are the 5 most likely NEXT WORDS that should come after it?", current)
	}

	return fmt.Sprintf(`An AI assistant is answering THIS user request word by word: %q

%s

RULES:
- Provide 5 DIFFERENT single words ordered from most to least likely
- Each word must make sense as the NEXT word in sequence
- Only %d words of the answer remain, keep the response concise and direct
- Do NOT use filler phrases like "Here's", "Below is", "An example of"

Respond with EXACTLY 5 words separated by commas.
Format: word1, word2, word3, word4, word5`, question, contextPrompt, wordsRemaining)
}
