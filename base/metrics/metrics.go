/*Package metrics wraps datadog-go to facilitate metric recording
Following are naming conventions of metrics:
- Internal process time: *.time
- External latency: *.latency
- Error: *.err
- Warning: *.warn
*/
package metrics

import (
	"github.com/spf13/viper"

	"github.com/reimerr12/nft-marketplace/base/env"
)

// Ender provides interface for BumpTime
type Ender interface {
	End()
}

// Service provides interface for metrics
type Service interface {
	BumpAvg(key string, val float64, tags ...string)
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)

	BumpTime(key string, tags ...string) Ender
}

// New creates a metric client with package name as prefix
func New(pkgName string) Service {
	ddTags := []string{
		// using host removes all tags associated with host
		// ref: https://docs.datadoghq.com/developers/dogstatsd/data_types/#host-tag-key
		"host:",
		"pod:" + env.PodName(),
		"env:" + viper.GetString("env_name"),
		"app:" + viper.GetString("app_name"),
	}

	return &Metrics{
		pkgName: pkgName,
		datadog: DDMetrics{
			ddTags: ddTags,
		},
	}
}

// Metrics wraps the datadog statsd client behind the Service interface
type Metrics struct {
	pkgName string
	datadog DDMetrics
}

// BumpAvg bumps the average for the given key.
func (mt *Metrics) BumpAvg(key string, val float64, tags ...string) {
	mt.datadog.BumpAvg(mt.pkgName+`.`+key, val, 1, tags...)
}

// BumpSum bumps the sum for the given key.
func (mt *Metrics) BumpSum(key string, val float64, tags ...string) {
	mt.datadog.BumpSum(mt.pkgName+`.`+key, val, 1, tags...)
}

// BumpHistogram bumps the histogram for the given key.
func (mt *Metrics) BumpHistogram(key string, val float64, tags ...string) {
	mt.datadog.BumpHistogram(mt.pkgName+`.`+key, val, 1, tags...)
}

// BumpTime is a special version of BumpHistogram specialized for timers.
// A convenient way of recording the duration of a function:
//
//	defer s.BumpTime("my.function").End()
func (mt *Metrics) BumpTime(key string, tags ...string) Ender {
	return mt.datadog.BumpTime(mt.pkgName+`.`+key, 1, tags...)
}
