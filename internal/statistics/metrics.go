package statistics

import (
	"fmt"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/viper"
	"github.com/wal-g/tracelog"

	conf "github.com/wal-g/relaysum/internal/config"
)

func init() {
	// unregister prometheus collectors
	// https://github.com/prometheus/client_golang/blob/8dfa334295e85f9b1e48ce862fae5f337faa6d2f/prometheus/registry.go#L62-L63
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prometheus.Unregister(collectors.NewGoCollector())
}

// PushMetrics sends every registered counter and gauge to statsd when an address is configured.
func PushMetrics() {
	address := viper.GetString(conf.StatsdAddressSetting)
	if address == "" {
		return
	}

	extraTags := viper.GetStringMapString(conf.StatsdExtraTagsSetting)

	err := pushMetrics(address, extraTags)
	if err != nil {
		tracelog.WarningLogger.Printf("Pushing metrics failed: %v", err)
	}
}

func pushMetrics(address string, extraTags map[string]string) error {
	config := &statsd.ClientConfig{
		Address:       address,
		UseBuffered:   true,
		FlushInterval: 10 * time.Second,
		TagFormat:     statsd.InfixComma,
	}

	client, err := statsd.NewClientWithConfig(config)
	if err != nil {
		return err
	}
	defer client.Close()

	tracelog.DebugLogger.Printf("Sending metrics to statsd")
	return writeGathered(client, prometheus.DefaultGatherer, extraTags)
}

func writeGathered(client statsd.Statter, gatherer prometheus.Gatherer, extraTags map[string]string) error {
	mfs, err := gatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if err := writeMetricFamilyToStatsd(client, mf, extraTags); err != nil {
			return err
		}
	}
	return nil
}

func writeMetricFamilyToStatsd(client statsd.Statter, in *dto.MetricFamily, extraTags map[string]string) error {
	name := in.GetName()
	metricType := in.GetType()

	for _, metric := range in.Metric {
		tags := make([]statsd.Tag, 0, len(metric.Label)+len(extraTags))
		for _, lp := range metric.Label {
			tags = append(tags, statsd.Tag{lp.GetName(), lp.GetValue()})
		}
		for k, v := range extraTags {
			tags = append(tags, statsd.Tag{k, v})
		}

		switch metricType {
		case dto.MetricType_COUNTER:
			if metric.Counter == nil {
				return fmt.Errorf("expected counter in metric %s %s", name, metric)
			}
			err := client.Inc(name, int64(metric.Counter.GetValue()), 1.0, tags...)
			if err != nil {
				return err
			}
		case dto.MetricType_GAUGE:
			if metric.Gauge == nil {
				return fmt.Errorf("expected gauge in metric %s %s", name, metric)
			}
			err := client.Gauge(name, int64(metric.Gauge.GetValue()), 1.0, tags...)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected type %s in metric %s", metricType, name)
		}
	}

	return nil
}
