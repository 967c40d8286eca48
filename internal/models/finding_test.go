package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityText(t *testing.T) {
	assert.Equal(t, "MEDIUM", SeverityMedium.String())

	data, err := json.Marshal(SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, `"high"`, string(data))

	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"Low"`), &s))
	assert.Equal(t, SeverityLow, s)
	assert.Error(t, json.Unmarshal([]byte(`"critical"`), &s))
}

func TestEscalate(t *testing.T) {
	assert.Equal(t, SeverityHigh, SeverityMedium.Escalate())
	assert.Equal(t, SeverityHigh, SeverityHigh.Escalate())
	assert.Equal(t, SeverityLow, SeverityLow.Escalate())
}

func TestScanResultJSON(t *testing.T) {
	result := ScanResult{
		FilePath:     "<input>",
		Language:     LanguageUnknown,
		ScanDuration: 1500 * time.Microsecond,
		Err:          NewDetectionFailure("Could not detect programming language"),
	}
	data, err := json.Marshal(result)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw["findings"])
	assert.EqualValues(t, 0, raw["findings_count"])
	assert.EqualValues(t, 1.5, raw["scan_time_ms"])
	assert.Equal(t, "Could not detect programming language", raw["error"])
	assert.Equal(t, "detection_failure", raw["error_kind"])

	var back ScanResult
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Err)
	assert.Equal(t, DetectionFailure, back.Err.Kind)
	assert.Equal(t, result.ScanDuration, back.ScanDuration)
}

func TestScanResultJSONWithoutError(t *testing.T) {
	data, err := json.Marshal(ScanResult{FilePath: "a.py", Language: LanguagePython})
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "error")
	assert.Nil(t, raw["error"])
	assert.NotContains(t, raw, "error_kind")
}

func TestHasFindingAtOrAbove(t *testing.T) {
	r := ScanResult{Findings: []Finding{{Severity: SeverityMedium}}}
	assert.True(t, r.HasFindingAtOrAbove(SeverityLow))
	assert.True(t, r.HasFindingAtOrAbove(SeverityMedium))
	assert.False(t, r.HasFindingAtOrAbove(SeverityHigh))
}

func TestScanErrorWrapping(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewResourceAccessFailure("secret.py", cause)
	assert.Equal(t, "cannot read secret.py: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, LanguageJavaScript, ParseLanguage("TS"))
	assert.Equal(t, LanguagePython, ParseLanguage(" py "))
	assert.Equal(t, LanguageUnknown, ParseLanguage("auto"))
	assert.False(t, LanguageUnknown.Supported())
}
