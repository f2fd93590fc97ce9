package tasks

import (
	"strings"

	"github.com/spboyer/qprint/internal/dataset"
)

// Record fields read by the formatters.
const (
	fieldQuestion = "question"
	fieldChoices  = "choices"
)

// choiceLabels are the answer letters for multiple-choice prompts. Only this
// many choices are ever rendered.
var choiceLabels = [...]string{"A", "B", "C", "D"}

// Format renders rec as the prompt for task k.
func Format(k Kind, rec dataset.Record) string {
	switch k {
	case NQOpen:
		return FormatNQOpen(rec)
	case MMLU:
		return FormatMMLU(rec)
	default:
		return FormatTriviaQA(rec)
	}
}

// FormatTriviaQA renders "Question: {question}?\nAnswer:".
func FormatTriviaQA(rec dataset.Record) string {
	return "Question: " + rec.String(fieldQuestion) + "?\nAnswer:"
}

// FormatNQOpen renders "Q: {question}?\nA:".
func FormatNQOpen(rec dataset.Record) string {
	return "Q: " + rec.String(fieldQuestion) + "?\nA:"
}

// FormatMMLU renders the trimmed question followed by four lettered choices
// and "Answer:". With fewer than four choices the choices are left out
// entirely; anything past the fourth is ignored.
func FormatMMLU(rec dataset.Record) string {
	question := strings.TrimSpace(rec.String(fieldQuestion))
	choices := rec.Strings(fieldChoices)
	if len(choices) < len(choiceLabels) {
		return question + "\nAnswer:"
	}

	var sb strings.Builder
	sb.WriteString(question)
	sb.WriteString("\n")
	for i, label := range choiceLabels {
		sb.WriteString(label)
		sb.WriteString(". ")
		sb.WriteString(choices[i])
		sb.WriteString("\n")
	}
	sb.WriteString("Answer:")
	return sb.String()
}
