package agents

import (
	"context"
	"fmt"
)

const recommendPromptFormat = `You are a data cleaning specialist. Based on the analysis, recommend concrete cleaning strategies for this dataset.

Provide:
1. A prioritized cleaning plan - order operations by impact and dependency
2. Per-issue recommendations - for each issue found in the analysis:
   - The cleaning method to apply (imputation, removal, standardization, etc.)
   - Which columns are affected
   - Expected data loss, if any
3. Validation steps - how to verify each operation succeeded
4. What NOT to clean - values that look anomalous but may be legitimate

If STRATEGY CONTEXT is provided, prefer strategies that worked for similar datasets.

STRATEGY CONTEXT:
%s

DATASET INFORMATION:
%s

ANALYSIS:
%s

Provide specific, actionable cleaning recommendations.`

// Recommend runs the cleaning-recommendation stage.
func Recommend(ctx context.Context, llm Completer, profileSummary, analysis, strategyContext string) (string, error) {
	prompt := fmt.Sprintf(recommendPromptFormat, strategyContext, profileSummary, analysis)

	out, err := llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("recommend stage: %w", err)
	}
	return out, nil
}
