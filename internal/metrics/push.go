package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Job is the Pushgateway job name for bulk runs.
const Job = "bazarr_bulk"

// Push sends the gathered metrics to a Pushgateway, grouped by run and command.
func Push(ctx context.Context, gatewayURL, runID, command string, gatherer prometheus.Gatherer) error {
	if gatewayURL == "" {
		return nil
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	err := push.New(gatewayURL, Job).
		Gatherer(gatherer).
		Grouping("run_id", runID).
		Grouping("command", command).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
