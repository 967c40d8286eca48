// Package cost turns a detected category into an approximate monetary
// projection. Amounts are in rupees and use fixed unit prices.
package cost

import (
	"finlint/internal/models"
)

const (
	DefaultIterations = 100
	DaysPerMonth      = 30
	Currency          = "₹"
	Disclaimer        = "Approximate estimate for awareness, not exact billing."
)

// UnitCost returns the fixed price of one operation in the category. The
// second result is false for categories without a price.
func UnitCost(c models.Category) (float64, bool) {
	switch c {
	case models.CategoryDataRead:
		return 0.002, true
	case models.CategoryDataWrite:
		return 0.004, true
	case models.CategoryOutboundCall:
		return 0.01, true
	case models.CategorySerialization:
		return 0.0001, true
	}
	return 0, false
}

// SeverityForMonthly buckets a projected monthly cost.
func SeverityForMonthly(monthly float64) models.Severity {
	switch {
	case monthly > 100:
		return models.SeverityHigh
	case monthly > 10:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

type Estimator struct {
	iterations int
}

// NewEstimator uses DefaultIterations when iterations is not positive.
func NewEstimator(iterations int) *Estimator {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Estimator{iterations: iterations}
}

func (e *Estimator) Iterations() int {
	return e.iterations
}

// Estimate returns nil when the category has no unit cost.
func (e *Estimator) Estimate(c models.Category) *models.CostEstimate {
	unit, ok := UnitCost(c)
	if !ok {
		return nil
	}
	perExec := unit * float64(e.iterations)
	monthly := perExec * DaysPerMonth
	return &models.CostEstimate{
		Category:         c,
		UnitCost:         unit,
		Iterations:       e.iterations,
		PerExecutionCost: perExec,
		MonthlyCost:      monthly,
		Severity:         SeverityForMonthly(monthly),
	}
}

// Summarize aggregates estimates. Severity buckets count the estimate
// severities, not the finding severities.
func Summarize(estimates []models.CostEstimate) models.Summary {
	s := models.Summary{Disclaimer: Disclaimer}
	for _, e := range estimates {
		s.TotalPerExecutionCost += e.PerExecutionCost
		s.TotalMonthlyCost += e.MonthlyCost
		s.SeverityCounts.Add(e.Severity)
	}
	s.FindingsCount = len(estimates)
	return s
}

// SummarizeFindings collects the estimates carried by findings.
func SummarizeFindings(findings []models.Finding) models.Summary {
	estimates := make([]models.CostEstimate, 0, len(findings))
	for _, f := range findings {
		if f.CostEstimate != nil {
			estimates = append(estimates, *f.CostEstimate)
		}
	}
	return Summarize(estimates)
}
