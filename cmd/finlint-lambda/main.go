// Command finlint-lambda serves the scan API as an AWS Lambda function
// behind API Gateway.
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"finlint/internal/analyzer"
	"finlint/internal/config"
	"finlint/internal/logging"
	"finlint/internal/server"
)

func main() {
	logger, err := logging.Init(os.Getenv("FINLINT_DEBUG") != "")
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.DefaultConfig()
	svc := server.NewService(analyzer.NewEngineFromConfig(cfg, logger), logger)
	lambda.Start(svc.LambdaHandler)
}
