package openai

import (
	"fmt"
	"strings"
)

// buildJudgePrompt frames answer correctness as a binary classification. The
// model must reply with a single word so the verdict parsing upstream stays
// trivial.
func buildJudgePrompt(question, goldAnswer, generatedAnswer string) string {
	var b strings.Builder
	b.WriteString("You are grading the answer to a question against a reference answer.\n")
	b.WriteString("Decide whether the generated answer conveys the same essential information as the reference answer. ")
	b.WriteString("Wording differences do not matter; factual agreement does.\n\n")
	fmt.Fprintf(&b, "Question:\n%s\n\n", question)
	fmt.Fprintf(&b, "Reference answer:\n%s\n\n", goldAnswer)
	fmt.Fprintf(&b, "Generated answer:\n%s\n\n", generatedAnswer)
	b.WriteString("Reply with exactly one word: Pass if the generated answer is correct, Fail otherwise.")
	return b.String()
}
