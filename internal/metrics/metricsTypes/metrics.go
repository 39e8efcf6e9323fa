package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

var (
	Metric_Incr_ContractRead        = "contract_read"
	Metric_Incr_ActionSubmitted     = "action_submitted"
	Metric_Incr_ActionCompleted     = "action_completed"
	Metric_Incr_RecordKeeperRequest = "record_keeper_request"
	Metric_Incr_HttpRequest         = "http_request"

	Metric_Gauge_StakePageSize = "stake_page_size"

	Metric_Timing_ReadBatchDuration = "read_batch_duration"
	Metric_Timing_ActionDuration    = "action_duration"
	Metric_Timing_HttpDuration      = "http_duration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name:   Metric_Incr_ContractRead,
			Labels: []string{"read", "status"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_ActionSubmitted,
			Labels: []string{"action"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_ActionCompleted,
			Labels: []string{"action", "state"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_RecordKeeperRequest,
			Labels: []string{"op", "status"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_HttpRequest,
			Labels: []string{"route", "status"},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_StakePageSize,
			Labels: []string{},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name:   Metric_Timing_ReadBatchDuration,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_ActionDuration,
			Labels: []string{"action"},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_HttpDuration,
			Labels: []string{"route"},
		},
	},
}
