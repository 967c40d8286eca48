package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

// LambdaHandler answers API Gateway proxy events with the same contract as
// the HTTP server. GET requests return the health payload.
func (s *Service) LambdaHandler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch req.HTTPMethod {
	case http.MethodOptions:
		return proxyResponse(http.StatusOK, nil), nil
	case http.MethodGet:
		return proxyResponse(http.StatusOK, s.Health()), nil
	case http.MethodPost:
	default:
		return proxyResponse(http.StatusMethodNotAllowed, ScanResponse{Error: "Method not allowed"}), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return proxyResponse(http.StatusBadRequest, ScanResponse{Error: "Invalid base64 body"}), nil
		}
		body = decoded
	}
	status, resp := s.Scan(body)
	return proxyResponse(status, resp), nil
}

func proxyResponse(status int, payload any) events.APIGatewayProxyResponse {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range corsHeaders {
		headers[k] = v
	}
	resp := events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			resp.StatusCode = http.StatusInternalServerError
			data = []byte(`{"success":false,"error":"encoding failed"}`)
		}
		resp.Body = string(data)
	}
	return resp
}
