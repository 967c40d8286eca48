package sarif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finlint/internal/models"
)

func TestBuild(t *testing.T) {
	report := &models.BatchReport{
		RunID: "run-1",
		Results: []models.ScanResult{
			{
				FilePath: "./src/b.py",
				Findings: []models.Finding{
					{FilePath: "./src/b.py", LineNumber: 9, RuleID: "PY003", RuleName: "Serialization in Loop", Severity: models.SeverityMedium, Category: models.CategorySerialization, Description: "json.dumps in loop."},
					{FilePath: "./src/b.py", LineNumber: 3, RuleID: "PY001", RuleName: "Database Call in Loop", Severity: models.SeverityHigh, Category: models.CategoryDataRead, LineContent: "db.get(k)",
						CostEstimate: &models.CostEstimate{PerExecutionCost: 0.2, MonthlyCost: 6}},
				},
			},
			{FilePath: "broken.txt", Err: models.NewDetectionFailure("Could not detect programming language")},
		},
		ErrorCount: 1,
	}

	log := Build(report, "finlint", "1.0.0")
	assert.Equal(t, Version, log.Version)
	require.Len(t, log.Runs, 1)
	run := log.Runs[0]

	require.Len(t, run.Results, 2)
	first := run.Results[0]
	assert.Equal(t, "PY001", first.RuleID)
	assert.Equal(t, "error", first.Level)
	assert.Equal(t, "src/b.py", first.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 3, first.Locations[0].PhysicalLocation.Region.StartLine)
	assert.Contains(t, first.Message.Text, "₹6.00 per month")
	assert.Equal(t, 6.0, first.Properties["monthly_cost"])
	assert.Equal(t, "note", sevToLevel(models.SeverityLow))

	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "PY001", run.Tool.Driver.Rules[0].ID)

	require.NotNil(t, run.AutomationDetails)
	assert.Equal(t, "finlint/run-1", run.AutomationDetails.ID)
	require.Len(t, run.Invocations, 1)
	assert.False(t, run.Invocations[0].ExecutionSuccessful)
	require.Len(t, run.Invocations[0].ToolExecutionNotifications, 1)
	assert.Contains(t, run.Invocations[0].ToolExecutionNotifications[0].Message.Text, "detection_failure")

	data, err := Marshal(log)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$schema"`)
}
