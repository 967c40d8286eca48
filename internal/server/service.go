// Package server exposes single-snippet scanning over HTTP and AWS Lambda.
// Both transports share the request contract implemented by Service.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"finlint/internal/analyzer"
	"finlint/internal/logging"
	"finlint/internal/models"
)

// ScanRequest is the body accepted by the scan endpoint. Language may be
// empty or "auto" to detect it from the code.
type ScanRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

type ScanResponse struct {
	Success bool               `json:"success"`
	Result  *models.ScanResult `json:"result,omitempty"`
	Summary *models.Summary    `json:"summary,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Service scans request bodies with a shared engine.
type Service struct {
	engine *analyzer.Engine
	logger *zap.Logger
}

func NewService(engine *analyzer.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = logging.L()
	}
	return &Service{engine: engine, logger: logger}
}

// Scan decodes body and scans it. The returned status is the HTTP status
// to answer with.
func (s *Service) Scan(body []byte) (int, ScanResponse) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return http.StatusBadRequest, ScanResponse{Error: "No data provided"}
	}
	var req ScanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return http.StatusBadRequest, ScanResponse{Error: "Invalid JSON body"}
	}
	if strings.TrimSpace(req.Code) == "" {
		return http.StatusBadRequest, ScanResponse{Error: "No code provided"}
	}

	hint := models.LanguageUnknown
	if req.Language != "" && req.Language != "auto" {
		hint = models.ParseLanguage(req.Language)
	}

	result := s.engine.ScanSource(req.Code, hint, "")
	summary := analyzer.Summarize(result)
	s.logger.Debug("scan request",
		zap.String("language", string(result.Language)),
		zap.Int("findings", len(result.Findings)))
	return http.StatusOK, ScanResponse{Success: true, Result: &result, Summary: &summary}
}

func (s *Service) Health() HealthResponse {
	return HealthResponse{Status: "healthy", Version: analyzer.ToolVersion}
}
