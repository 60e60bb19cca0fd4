package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	service "github.com/okian/wattcast/internal/app"
	"github.com/okian/wattcast/internal/adapters/artifacts"
	"github.com/okian/wattcast/internal/adapters/mq/worker"
	"github.com/okian/wattcast/internal/adapters/session"
	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/internal/domain/pipeline"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

func loadPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	dir := filepath.Join("..", "adapters", "artifacts", "testdata")
	bundle, err := artifacts.Load(context.Background(), artifacts.Paths{
		Scaler:    filepath.Join(dir, "scaler.json"),
		Projector: filepath.Join(dir, "pca.yaml"),
		Regressor: filepath.Join(dir, "regressor.json"),
	})
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	p, err := pipeline.New(bundle)
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}
	return p
}

type collectingSink struct {
	mu     sync.Mutex
	events []model.PredictionEvent
}

func (c *collectingSink) Publish(_ context.Context, e model.PredictionEvent) error { //nolint:gocritic // hugeParam
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectingSink) snapshot() []model.PredictionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.PredictionEvent(nil), c.events...)
}

type gatedSink struct {
	gate chan struct{}
	collectingSink
}

func (g *gatedSink) Publish(ctx context.Context, e model.PredictionEvent) error { //nolint:gocritic // hugeParam
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.collectingSink.Publish(ctx, e)
}

func TestServiceStopAfterStartContextCancelled(t *testing.T) {
	Convey("Given a publishing service started on a cancellable context", t, func() {
		sink := &gatedSink{gate: make(chan struct{})}
		issuer, err := session.NewIssuer("drain", time.Hour)
		So(err, ShouldBeNil)

		svc := service.New(
			service.WithPredictor(loadPipeline(t)),
			service.WithSessionIssuer(issuer),
			service.WithBcryptCost(bcrypt.MinCost),
			service.WithEventSink(worker.Sink(sink)),
			service.WithPublishWorkers(2),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		fields := map[string]string{"grp": "0.3", "gi": "2.5", "sm1": "10", "sm2": "5", "sm3": "1"}
		for i := 0; i < 5; i++ {
			_, ok := svc.HandlePredictionRequest(ctx, "admin", fields).(model.Success)
			So(ok, ShouldBeTrue)
		}

		Convey("When the start context is cancelled before Stop", func() {
			cancel()
			close(sink.gate)
			svc.Stop()

			Convey("Then every queued event is still published", func() {
				So(len(sink.snapshot()), ShouldEqual, 5)
			})
		})
	})
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over real artifacts with event publishing", t, func() {
		sink := &collectingSink{}
		issuer, err := session.NewIssuer("integration", time.Hour)
		So(err, ShouldBeNil)

		p := loadPipeline(t)
		svc := service.New(
			service.WithPredictor(p),
			service.WithSessionIssuer(issuer),
			service.WithBcryptCost(bcrypt.MinCost),
			service.WithEventSink(worker.Sink(sink)),
			service.WithPublishQueueSize(100),
			service.WithPublishWorkers(2),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a user logs in and predicts", func() {
			token, _, err := svc.Login(ctx, "admin", "1234")
			So(err, ShouldBeNil)
			user, err := svc.Authenticate(ctx, token)
			So(err, ShouldBeNil)

			fields := map[string]string{"grp": "0,3", "gi": "2.5", "sm1": "10", "sm2": "5", "sm3": "1"}
			out := svc.HandlePredictionRequest(ctx, user, fields)

			Convey("Then the pipeline result is returned and recorded", func() {
				success, ok := out.(model.Success)
				So(ok, ShouldBeTrue)
				So(success.Result.Value, ShouldEqual, 11.5)
				So(int(success.Result.TopSubmeter), ShouldEqual, 1)

				history := svc.GetHistory(ctx, "admin")
				So(len(history), ShouldEqual, 1)
				So(history[0].Prediction, ShouldEqual, 11.5)
			})

			Convey("Then the event is published once the service drains", func() {
				recordID := svc.GetHistory(ctx, "admin")[0].ID
				svc.Stop()
				events := sink.snapshot()
				So(len(events), ShouldEqual, 1)
				So(events[0].User, ShouldEqual, "admin")
				So(events[0].Interface, ShouldEqual, model.InterfacePrimary)
				So(events[0].Voltage, ShouldEqual, 240.0)
				So(events[0].Prediction, ShouldEqual, 11.5)
				So(events[0].ID, ShouldEqual, recordID)
			})
		})

		Convey("When the stats are read", func() {
			stats := svc.GetStats()

			Convey("Then publishing and pipeline details are included", func() {
				So(stats["publishing"], ShouldEqual, true)
				So(stats["queueCapacity"], ShouldEqual, 100)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["pipeline"], ShouldEqual, "scaler[6] -> projector[6->2] -> random_forest")
			})
		})
	})
}

func TestServiceDeterminism(t *testing.T) {
	Convey("Given two services built from the same artifacts", t, func() {
		ctx := context.Background()
		build := func() *service.Service {
			issuer, err := session.NewIssuer("s", time.Hour)
			So(err, ShouldBeNil)
			svc := service.New(
				service.WithPredictor(loadPipeline(t)),
				service.WithSessionIssuer(issuer),
				service.WithBcryptCost(bcrypt.MinCost),
			)
			So(svc.Start(ctx), ShouldBeNil)
			return svc
		}
		a, b := build(), build()
		defer a.Stop()
		defer b.Stop()

		inputs := []map[string]string{
			{"grp": "0.1", "gi": "1", "sm1": "0", "sm2": "0", "sm3": "0"},
			{"grp": "0.9", "gi": "12.5", "sm1": "3", "sm2": "3", "sm3": "7"},
			{"grp": "0", "gi": "0", "sm1": "1", "sm2": "2", "sm3": "3"},
			{"grp": "1", "gi": "40", "sm1": "38", "sm2": "1", "sm3": "17"},
		}

		Convey("Then identical readings give identical predictions", func() {
			for _, in := range inputs {
				first := a.HandlePredictionRequest(ctx, "admin", in)
				second := b.HandlePredictionRequest(ctx, "admin", in)
				again := a.HandlePredictionRequest(ctx, "admin", in)
				So(first, ShouldResemble, second)
				So(first, ShouldResemble, again)
			}
			So(len(a.GetHistory(ctx, "admin")), ShouldEqual, 2*len(inputs))
		})
	})
}
