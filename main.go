package main

import (
	"context"
	"io"
	"sync"

	"github.com/fnproject/fdk-go"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/ConnectingApps/CustomCloudLogger/common"
	"github.com/ConnectingApps/CustomCloudLogger/config"
	"github.com/ConnectingApps/CustomCloudLogger/loganalytics"
	"github.com/ConnectingApps/CustomCloudLogger/loggroup"
	"github.com/ConnectingApps/CustomCloudLogger/logger"
	"github.com/ConnectingApps/CustomCloudLogger/unmarshal"
	"github.com/ConnectingApps/CustomCloudLogger/util"
)

var log = logger.NewLogrusLogger(logger.WithDebugLevel())

// main function is the entry point for the FDK (Fn Project Development Kit).
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.TraceEnabled {
		tracer.Start(tracer.WithService(cfg.TraceServiceName))
		defer tracer.Stop()
	}

	fdk.Handle(fdk.HandlerFunc(func(ctx context.Context, in io.Reader, out io.Writer) {
		handleFunction(ctx, in, out, cfg)
	}))
}

// handleFunction builds a Log Analytics client for the invocation and forwards the incoming OCI logs.
func handleFunction(ctx context.Context, in io.Reader, out io.Writer, cfg *config.Config) {
	client, err := util.NewLogAnalyticsClient(ctx, cfg)
	if err != nil {
		log.Errorf("unable to create log analytics client: %v", err)
		return
	}
	defer client.Close()

	if err := handleFunctionWithClient(ctx, in, out, client, cfg.LogType, cfg.SendOptions()...); err != nil {
		log.Errorf("unable to forward logs: %v", err)
	}
}

// handleFunctionWithClient decodes the payload, flattens and batches the events, and posts every batch.
// Post failures are logged per batch; only payload errors are returned.
func handleFunctionWithClient(ctx context.Context, in io.Reader, out io.Writer, client util.LogAnalyticsClientAPI, logType string, opts ...loganalytics.SendOption) error {
	var event unmarshal.Event
	if err := event.Unmarshal(in); err != nil {
		return err
	}
	log.WithField("events", len(event.OCILoggingEvent)).Debug("received OCI logging events")

	// One slot per event is enough for the worst case of one batch per event.
	channel := make(chan common.LogBatch, len(event.OCILoggingEvent))
	var wg sync.WaitGroup
	wg.Add(1)
	go util.ConsumeLogBatches(ctx, channel, &wg, client, logType, opts...)

	err := loggroup.ProcessLogs(event.OCILoggingEvent, channel)
	close(channel)
	wg.Wait()

	return err
}
