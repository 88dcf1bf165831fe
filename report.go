package larkrelay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ailover/larkrelay/internal/larkapi"
)

// TestReportData is the structured execution summary rendered into a
// document. All fields are read-only inputs to the formatting step.
type TestReportData struct {
	Summary                     string                 `json:"summary"`
	TotalTestCases              int                    `json:"totalTestCases"`
	ExecutedTestCases           int                    `json:"executedTestCases"`
	ExecutionProgressPercentage float64                `json:"executionProgressPercentage"`
	StatusBreakdown             map[string]StatusCount `json:"statusBreakdown"`
	RiskAnalysis                *RiskAnalysis          `json:"riskAnalysis,omitempty"`
	Recommendations             []string               `json:"recommendations,omitempty"`
}

// StatusCount is a per-status execution tally.
type StatusCount struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RiskAnalysis is the optional risk section of a report.
type RiskAnalysis struct {
	Overview               string     `json:"overview"`
	KeyFailures            []RiskItem `json:"keyFailures,omitempty"`
	KeyPendingHighCritical []RiskItem `json:"keyPendingHighCritical,omitempty"`
}

// RiskItem is a single prioritized finding.
type RiskItem struct {
	Priority string `json:"priority"`
	ID       string `json:"id"`
	Content  string `json:"content"`
}

// Rendered statuses and their fixed text colors.
var statusRenderOrder = []struct {
	Name  string
	Color int
}{
	{"PASS", larkapi.TextColorGreen},
	{"FAIL", larkapi.TextColorRed},
	{"PENDING", larkapi.TextColorOrange},
}

// formatReportBlocks turns a report into the ordered block tree appended to a
// fresh document: summary, execution statistics, then the conditional risk
// and recommendation sections.
func formatReportBlocks(report TestReportData) larkapi.BlockTree {
	children := []larkapi.Block{
		summaryBlock(report),
		statisticsBlock(report),
	}

	if report.RiskAnalysis != nil {
		children = append(children, riskOverviewBlock(*report.RiskAnalysis))
		if len(report.RiskAnalysis.KeyFailures) > 0 {
			children = append(children, riskItemsBlock(
				"Key Failures:\n",
				larkapi.TextColorRed,
				larkapi.BackgroundColorRed,
				report.RiskAnalysis.KeyFailures,
			))
		}
		if len(report.RiskAnalysis.KeyPendingHighCritical) > 0 {
			children = append(children, riskItemsBlock(
				"Key Pending High/Critical Cases:\n",
				larkapi.TextColorOrange,
				larkapi.BackgroundColorOrange,
				report.RiskAnalysis.KeyPendingHighCritical,
			))
		}
	}

	if len(report.Recommendations) > 0 {
		children = append(children, recommendationsBlock(report.Recommendations))
	}

	return larkapi.BlockTree{Index: 0, Children: children}
}

func summaryBlock(report TestReportData) larkapi.Block {
	return larkapi.NewTextBlock(
		larkapi.TextRun{
			Content: "Test Summary:\n",
			Style:   &larkapi.TextStyle{Bold: true, TextColor: larkapi.TextColorBlack},
		},
		larkapi.TextRun{
			Content: report.Summary,
			Style:   &larkapi.TextStyle{TextColor: larkapi.TextColorBlack},
		},
	)
}

func statisticsBlock(report TestReportData) larkapi.Block {
	runs := []larkapi.TextRun{
		{
			Content: "Execution Statistics:\n",
			Style:   &larkapi.TextStyle{Bold: true, TextColor: larkapi.TextColorBlack},
		},
		{
			Content: fmt.Sprintf(
				"• Total Test Cases: %d\n• Executed Test Cases: %d\n• Execution Progress: %s%%\n\n",
				report.TotalTestCases,
				report.ExecutedTestCases,
				formatPercent(report.ExecutionProgressPercentage),
			),
			Style: &larkapi.TextStyle{TextColor: larkapi.TextColorBlack},
		},
		{
			Content: "Status Breakdown:\n",
			Style:   &larkapi.TextStyle{Bold: true, TextColor: larkapi.TextColorBlack},
		},
	}

	for i, status := range statusRenderOrder {
		entry := report.StatusBreakdown[status.Name]
		content := fmt.Sprintf("• %s: %d (%s%%)", status.Name, entry.Count, formatPercent(entry.Percentage))
		if i < len(statusRenderOrder)-1 {
			content += "\n"
		}
		runs = append(runs, larkapi.TextRun{
			Content: content,
			Style:   &larkapi.TextStyle{TextColor: status.Color},
		})
	}
	return larkapi.NewTextBlock(runs...)
}

func riskOverviewBlock(risk RiskAnalysis) larkapi.Block {
	return larkapi.NewTextBlock(
		larkapi.TextRun{
			Content: "Risk Analysis:\n",
			Style: &larkapi.TextStyle{
				Bold:            true,
				TextColor:       larkapi.TextColorBlack,
				BackgroundColor: larkapi.BackgroundColorYellow,
			},
		},
		larkapi.TextRun{
			Content: risk.Overview,
			Style:   &larkapi.TextStyle{TextColor: larkapi.TextColorBlack},
		},
	)
}

func riskItemsBlock(heading string, headingColor, headingBackground int, items []RiskItem) larkapi.Block {
	runs := []larkapi.TextRun{
		{
			Content: heading,
			Style: &larkapi.TextStyle{
				Bold:            true,
				TextColor:       headingColor,
				BackgroundColor: headingBackground,
			},
		},
	}
	for _, item := range items {
		runs = append(runs, larkapi.TextRun{
			Content: fmt.Sprintf("• [%s] ID %s: %s\n", item.Priority, item.ID, item.Content),
			Style: &larkapi.TextStyle{
				TextColor: larkapi.TextColorBlack,
				Bold:      isCriticalPriority(item.Priority),
			},
		})
	}
	return larkapi.NewTextBlock(runs...)
}

func recommendationsBlock(recommendations []string) larkapi.Block {
	runs := []larkapi.TextRun{
		{
			Content: "Recommendations:\n",
			Style: &larkapi.TextStyle{
				Bold:            true,
				TextColor:       larkapi.TextColorBlack,
				BackgroundColor: larkapi.BackgroundColorBlue,
			},
		},
	}
	for i, rec := range recommendations {
		runs = append(runs, larkapi.TextRun{
			Content: fmt.Sprintf("%d. %s\n\n", i+1, rec),
			Style:   &larkapi.TextStyle{TextColor: larkapi.TextColorBlack},
		})
	}
	return larkapi.NewTextBlock(runs...)
}

// isCriticalPriority accepts both the spelled-out "Critical" and the single
// letter shorthand used by some report producers.
func isCriticalPriority(priority string) bool {
	priority = strings.TrimSpace(priority)
	return strings.EqualFold(priority, "critical") || priority == "C"
}

// formatPercent renders a percentage without a fixed precision so integral
// values stay integral (85 not 85.0).
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
