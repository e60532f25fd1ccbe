package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// StageTiming records how long a pipeline stage took.
type StageTiming struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsed"`
}

// Report is the assembled result of a pipeline run.
type Report struct {
	ID              string        `json:"id"`
	FileName        string        `json:"file_name"`
	Overview        string        `json:"overview"`
	Analysis        string        `json:"analysis"`
	Recommendations string        `json:"recommendations"`
	Evaluation      string        `json:"evaluation"`
	StrategyContext string        `json:"strategy_context,omitempty"`
	Elapsed         time.Duration `json:"elapsed"`
	Stages          []StageTiming `json:"stages"`
	CreatedAt       time.Time     `json:"created_at"`
}

// reportSections fixes the order and titles of the combined report.
var reportSections = []struct {
	title string
	body  func(r *Report) string
}{
	{"Dataset Overview", func(r *Report) string { return r.Overview }},
	{"Anomaly Analysis", func(r *Report) string { return r.Analysis }},
	{"Cleaning Recommendations", func(r *Report) string { return r.Recommendations }},
	{"Quality Assessment", func(r *Report) string { return r.Evaluation }},
}

// Markdown renders the downloadable combined report: each titled
// section followed by a horizontal rule.
func (r *Report) Markdown() string {
	var b strings.Builder
	for _, section := range reportSections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n---\n\n", section.title, section.body(r))
	}
	return b.String()
}

// DownloadName returns the report attachment filename for the dataset.
func (r *Report) DownloadName() string {
	stem := strings.TrimSuffix(r.FileName, filepath.Ext(r.FileName))
	return fmt.Sprintf("cleaning_report_%s.md", stem)
}
