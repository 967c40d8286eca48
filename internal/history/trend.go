package history

import "math"

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// Trend compares the estimated monthly cost and finding set of two runs.
type Trend struct {
	FirstRun     bool      `json:"first_run"`
	From         float64   `json:"from"`
	To           float64   `json:"to"`
	Delta        float64   `json:"delta"`
	DeltaPercent float64   `json:"delta_percent"`
	Direction    Direction `json:"direction"`
	New          int       `json:"new_findings"`
	Resolved     int       `json:"resolved_findings"`
}

func FirstRun(curr float64) Trend {
	return Trend{FirstRun: true, To: round(curr, 4), Direction: Flat}
}

// Compute builds the trend between two runs. Fingerprints are compared as
// multisets so repeated identical lines count separately.
func Compute(prev, curr float64, prevPrints, currPrints []string) Trend {
	d := curr - prev

	dir := Flat
	if d > 0.00001 {
		dir = Up
	} else if d < -0.00001 {
		dir = Down
	}

	dp := 0.0
	if math.Abs(prev) > 0.00001 {
		dp = (d / prev) * 100.0
	}

	remaining := make(map[string]int, len(prevPrints))
	for _, fp := range prevPrints {
		remaining[fp]++
	}
	added := 0
	for _, fp := range currPrints {
		if remaining[fp] > 0 {
			remaining[fp]--
			continue
		}
		added++
	}
	resolved := 0
	for _, n := range remaining {
		resolved += n
	}

	return Trend{
		From:         round(prev, 4),
		To:           round(curr, 4),
		Delta:        round(d, 4),
		DeltaPercent: round(dp, 2),
		Direction:    dir,
		New:          added,
		Resolved:     resolved,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
