package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finlint/internal/analyzer"
)

func TestLambdaHandler(t *testing.T) {
	svc := NewService(analyzer.NewEngine(), nil)
	body, err := json.Marshal(ScanRequest{Code: pythonLoop})
	require.NoError(t, err)

	tests := []struct {
		name      string
		req       events.APIGatewayProxyRequest
		status    int
		emptyBody bool
		contains  string
	}{
		{
			name:      "preflight",
			req:       events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions},
			status:    http.StatusOK,
			emptyBody: true,
		},
		{
			name:     "health",
			req:      events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet},
			status:   http.StatusOK,
			contains: `"status":"healthy"`,
		},
		{
			name:     "scan",
			req:      events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: string(body)},
			status:   http.StatusOK,
			contains: `"rule_id":"PY001"`,
		},
		{
			name: "base64 scan",
			req: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Body:            base64.StdEncoding.EncodeToString(body),
				IsBase64Encoded: true,
			},
			status:   http.StatusOK,
			contains: `"success":true`,
		},
		{
			name:     "bad base64",
			req:      events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: "%%%", IsBase64Encoded: true},
			status:   http.StatusBadRequest,
			contains: "Invalid base64 body",
		},
		{
			name:     "empty body",
			req:      events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost},
			status:   http.StatusBadRequest,
			contains: "No data provided",
		},
		{
			name:     "delete",
			req:      events.APIGatewayProxyRequest{HTTPMethod: http.MethodDelete},
			status:   http.StatusMethodNotAllowed,
			contains: "Method not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.LambdaHandler(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])
			if tt.emptyBody {
				assert.Empty(t, resp.Body)
			}
			if tt.contains != "" {
				assert.Contains(t, resp.Body, tt.contains)
			}
		})
	}
}
