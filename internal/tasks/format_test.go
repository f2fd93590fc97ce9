package tasks

import (
	"encoding/json"
	"testing"

	"github.com/spboyer/qprint/internal/dataset"
	"github.com/stretchr/testify/assert"
)

func TestFormatTriviaQA(t *testing.T) {
	assert.Equal(t, "Question: What is 2+2?\nAnswer:", FormatTriviaQA(dataset.Record{"question": "What is 2+2"}))
	assert.Equal(t, "Question: ?\nAnswer:", FormatTriviaQA(dataset.Record{}))
	// Only the mmlu prompt trims the question.
	assert.Equal(t, "Question:  spaced ?\nAnswer:", FormatTriviaQA(dataset.Record{"question": " spaced "}))
}

func TestFormatNQOpen(t *testing.T) {
	assert.Equal(t, "Q: who wrote hamlet?\nA:", FormatNQOpen(dataset.Record{"question": "who wrote hamlet", "answer": []any{"Shakespeare"}}))
	assert.Equal(t, "Q: ?\nA:", FormatNQOpen(dataset.Record{}))
}

func TestFormatMMLU(t *testing.T) {
	const fourChoice = "Which is prime?\nA. 4\nB. 6\nC. 7\nD. 9\nAnswer:"

	tests := []struct {
		name string
		rec  dataset.Record
		want string
	}{
		{
			name: "no choices field",
			rec:  dataset.Record{"question": "  Pick one  "},
			want: "Pick one\nAnswer:",
		},
		{
			name: "empty choices",
			rec:  dataset.Record{"question": "Pick one", "choices": []any{}},
			want: "Pick one\nAnswer:",
		},
		{
			name: "two choices dropped",
			rec:  dataset.Record{"question": "Pick one", "choices": []any{"x", "y"}},
			want: "Pick one\nAnswer:",
		},
		{
			name: "three choices dropped",
			rec:  dataset.Record{"question": "Pick one", "choices": []any{"x", "y", "z"}},
			want: "Pick one\nAnswer:",
		},
		{
			name: "exactly four",
			rec:  dataset.Record{"question": "Which is prime?\n", "choices": []any{"4", "6", "7", "9"}},
			want: fourChoice,
		},
		{
			name: "extra choices ignored",
			rec:  dataset.Record{"question": "Which is prime?", "choices": []any{"4", "6", "7", "9", "11", "13"}},
			want: fourChoice,
		},
		{
			name: "numeric choices",
			rec:  dataset.Record{"question": "Which is prime?", "choices": []any{4, 6, json.Number("7"), 9}},
			want: fourChoice,
		},
		{
			name: "choices as a JSON string",
			rec:  dataset.Record{"question": "Which is prime?", "choices": `["4","6","7","9"]`},
			want: fourChoice,
		},
		{
			name: "missing question",
			rec:  dataset.Record{"choices": []string{"a", "b", "c", "d"}},
			want: "\nA. a\nB. b\nC. c\nD. d\nAnswer:",
		},
		{
			name: "missing everything",
			rec:  dataset.Record{},
			want: "\nAnswer:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMMLU(tt.rec))
		})
	}
}

func TestFormatDispatch(t *testing.T) {
	rec := dataset.Record{"question": "Q", "choices": []any{"a", "b", "c", "d"}}

	assert.Equal(t, FormatTriviaQA(rec), Format(TriviaQA, rec))
	assert.Equal(t, FormatNQOpen(rec), Format(NQOpen, rec))
	assert.Equal(t, FormatMMLU(rec), Format(MMLU, rec))
}
