package agents

import (
	"context"
	"fmt"
)

const analyzePromptFormat = `You are a data quality analyst. Analyze the dataset information and identify all data quality issues.

Focus on:
1. Missing values (null, NaN, empty strings) - identify patterns and severity
2. Duplicate records - check for exact and partial duplicates
3. Data type inconsistencies - incorrect types for columns
4. Outliers and anomalies - statistical outliers, unrealistic values
5. Formatting issues - inconsistent date formats, string casing, whitespace
6. Referential integrity - relationships between columns
7. Data range issues - values outside expected ranges

If STRATEGY CONTEXT is provided, reference similar issues found in past analyses.

STRATEGY CONTEXT:
%s

DATASET INFORMATION:
%s

Provide a detailed analysis of all data quality issues found.`

// Analyze runs the data-quality analysis stage.
func Analyze(ctx context.Context, llm Completer, profileSummary, strategyContext string) (string, error) {
	prompt := fmt.Sprintf(analyzePromptFormat, strategyContext, profileSummary)

	out, err := llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("analyze stage: %w", err)
	}
	return out, nil
}
