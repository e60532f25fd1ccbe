package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func TestAnalyzePrompt(t *testing.T) {
	fake := &fakeCompleter{response: "issues found"}

	out, err := Analyze(context.Background(), fake, "Rows: 10", "[doc.md] dedupe first")
	require.NoError(t, err)
	assert.Equal(t, "issues found", out)

	require.Len(t, fake.prompts, 1)
	prompt := fake.prompts[0]
	assert.Contains(t, prompt, "data quality analyst")
	assert.Contains(t, prompt, "STRATEGY CONTEXT:\n[doc.md] dedupe first")
	assert.Contains(t, prompt, "DATASET INFORMATION:\nRows: 10")
	assert.Contains(t, prompt, "Referential integrity")
}

func TestRecommendPrompt(t *testing.T) {
	fake := &fakeCompleter{response: "drop dupes"}

	out, err := Recommend(context.Background(), fake, "Rows: 10", "dupes exist", "")
	require.NoError(t, err)
	assert.Equal(t, "drop dupes", out)

	prompt := fake.prompts[0]
	assert.Contains(t, prompt, "data cleaning specialist")
	assert.Contains(t, prompt, "ANALYSIS:\ndupes exist")
	assert.Contains(t, prompt, "What NOT to clean")
}

func TestEvaluatePrompt(t *testing.T) {
	fake := &fakeCompleter{response: "score: 80"}

	out, err := Evaluate(context.Background(), fake, "Rows: 10", "dupes exist", "drop dupes", "ctx")
	require.NoError(t, err)
	assert.Equal(t, "score: 80", out)

	prompt := fake.prompts[0]
	assert.Contains(t, prompt, "data quality assessor")
	assert.Contains(t, prompt, "Overall Data Quality Score (0-100)")
	assert.Contains(t, prompt, "RECOMMENDATIONS:\ndrop dupes")
}

func TestStagesPropagateErrors(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("model offline")}

	_, err := Analyze(context.Background(), fake, "p", "")
	assert.ErrorContains(t, err, "analyze stage")

	_, err = Recommend(context.Background(), fake, "p", "a", "")
	assert.ErrorContains(t, err, "recommend stage")

	_, err = Evaluate(context.Background(), fake, "p", "a", "r", "")
	assert.ErrorContains(t, err, "evaluate stage")
}
