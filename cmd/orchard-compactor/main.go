// Command orchard-compactor is an AWS Lambda function subscribed to the
// DynamoDB streams of the orchard tables. It removes the children left behind
// by deleted containers and sub-containers, and re-ranks every partition a
// record left so gaps from deletes and moves do not accumulate.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/orchard/engine"
	"github.com/jacentio/orchard/store/dynamo"
	"github.com/jacentio/orchard/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	tables := dynamo.DefaultConfig()
	if prefix := os.Getenv("ORCHARD_TABLE_PREFIX"); prefix != "" {
		tables = dynamo.ConfigWithPrefix(prefix)
	}

	svcCfg := engine.DefaultConfig()
	svcCfg.Logger = logger
	svc := engine.New(dynamo.New(dynamodb.NewFromConfig(cfg), tables), svcCfg)

	lambda.Start(stream.NewHandler(svc, logger).HandleStream)
}
