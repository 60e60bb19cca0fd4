package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the collectors are registered under the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.predictions.WithLabelValues("success", "primary").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "wattcast_predictor_predictions_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithPrometheusRegistry(registry),
			)
			manager.historyAppends.Inc()

			Convey("Then names follow the options", func() {
				count, err := testutil.GatherAndCount(registry, "test_unit_history_appends_total")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "wattcast")
				So(manager.subsystem, ShouldEqual, "predictor")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When prediction outcomes are recorded", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues("validation_failure", "primary"))
			RecordPrediction("validation_failure", "primary")
			RecordPrediction("validation_failure", "primary")

			Convey("Then the labelled counter moves", func() {
				after := testutil.ToFloat64(globalManager.predictions.WithLabelValues("validation_failure", "primary"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateHistoryUsers(3)
			UpdateHistoryRecords(42)
			UpdatePublishQueueSize(7)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.historyUsers), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.historyRecords), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.publishQueueSize), ShouldEqual, 7)
			})
		})

		Convey("When every recorder is called", func() {
			So(func() {
				RecordInferenceLatency(0.2)
				RecordHistoryAppend()
				UpdateHistoryShardCount(16)
				RecordLogin("success")
				RecordRegistration("duplicate")
				RecordContactMessage()
				UpdatePublishQueueCapacity(1024)
				RecordEventPublished()
				RecordEventDropped("queue_full")
				RecordPublishError()
				RecordPublishLatency(3)
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 1.5)
				RecordErrorByEndpoint("/predict", "POST", "client_error")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then the exposition contains the families", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "wattcast_predictor_history_appends_total")
				So(joined, ShouldContainSubstring, "wattcast_predictor_events_dropped_total")
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.historyAppends)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordHistoryAppend()
					RecordHTTPRequest("/history", "GET", "200")
				}
			}()
		}
		wg.Wait()

		So(testutil.ToFloat64(globalManager.historyAppends)-before, ShouldEqual, 1000)
	})
}
