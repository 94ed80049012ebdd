package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/spf13/cobra"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serve API Gateway proxy events on AWS Lambda",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildContainer(context.Background(), cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		adapter := httpadapter.New(c.Router())
		lambda.Start(adapter.ProxyWithContext)
		return nil
	},
}
