package util

import (
	"github.com/ConnectingApps/CustomCloudLogger/common"
)

// ProduceMessageToChannel stamps the common attributes on every record of a batch and sends it to a channel.
// Attributes already present on a record are kept.
func ProduceMessageToChannel(channel chan<- common.LogBatch, currentBatch common.LogBatch, attributes common.LogRecord) {
	for _, record := range currentBatch {
		for k, v := range attributes {
			if _, exists := record[k]; !exists {
				record[k] = v
			}
		}
	}
	channel <- currentBatch
}
