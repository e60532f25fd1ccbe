package agents

import (
	"context"
	"fmt"
)

const evaluatePromptFormat = `You are a data quality assessor. Evaluate the dataset's overall quality and the proposed cleaning strategies.

STRATEGY CONTEXT (for comparison with past evaluations):
%s

Provide:
1. Overall Data Quality Score (0-100)
   - Completeness score (0-100)
   - Consistency score (0-100)
   - Accuracy score (0-100)
   - Validity score (0-100)

2. Risk Assessment
   - Critical issues that must be addressed
   - Issues that can be deferred
   - Potential data loss from cleaning

3. Strategy Evaluation
   - Are the recommendations comprehensive?
   - Are there any missed issues?
   - Are the strategies appropriate for the data type?

4. Estimated Impact
   - Rows likely to be affected
   - Data quality improvement prediction
   - Time/effort estimation

5. Next Steps
   - Recommended order of operations
   - Additional analysis needed

DATASET INFO:
%s

ANALYSIS:
%s

RECOMMENDATIONS:
%s

Provide a comprehensive quality assessment.`

// Evaluate runs the quality-assessment stage.
func Evaluate(ctx context.Context, llm Completer, profileSummary, analysis, recommendations, strategyContext string) (string, error) {
	prompt := fmt.Sprintf(evaluatePromptFormat, strategyContext, profileSummary, analysis, recommendations)

	out, err := llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("evaluate stage: %w", err)
	}
	return out, nil
}
