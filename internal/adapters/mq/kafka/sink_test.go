package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/internal/domain/reading"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestSink(t *testing.T) {
	Convey("Given a sink over a fake writer", t, func() {
		fw := &fakeWriter{}
		sink := newSinkWithWriter(fw, "predictions")
		ev := model.PredictionEvent{
			ID:          "ev-1",
			User:        "admin",
			Interface:   model.InterfacePrimary,
			Timestamp:   time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC),
			Inputs:      reading.ReadingSet{GlobalReactivePower: 0.4},
			Voltage:     240,
			Prediction:  1.75,
			TopSubmeter: 2,
		}

		Convey("When an event is published", func() {
			So(sink.Publish(context.Background(), ev), ShouldBeNil)

			Convey("Then one keyed JSON message is written", func() {
				So(len(fw.msgs), ShouldEqual, 1)
				msg := fw.msgs[0]
				So(string(msg.Key), ShouldEqual, "admin")
				So(msg.Time, ShouldEqual, ev.Timestamp)
				So(string(msg.Headers[0].Value), ShouldEqual, "primary")

				var decoded model.PredictionEvent
				So(json.Unmarshal(msg.Value, &decoded), ShouldBeNil)
				So(decoded.ID, ShouldEqual, "ev-1")
				So(decoded.Prediction, ShouldEqual, 1.75)
				So(decoded.Inputs.GlobalReactivePower, ShouldEqual, 0.4)
			})
		})

		Convey("When the event has no user", func() {
			ev.User = ""
			So(sink.Publish(context.Background(), ev), ShouldBeNil)

			Convey("Then the event id is the key", func() {
				So(string(fw.msgs[0].Key), ShouldEqual, "ev-1")
			})
		})

		Convey("When the writer fails", func() {
			fw.err = errors.New("leader not available")
			err := sink.Publish(context.Background(), ev)

			Convey("Then the error names the topic", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "predictions")
				So(errors.Is(err, fw.err), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			So(sink.Close(), ShouldBeNil)
			So(fw.closed, ShouldBeTrue)
		})
	})
}

func TestNewSink(t *testing.T) {
	Convey("Given sink configuration", t, func() {
		Convey("Then brokers are required", func() {
			_, err := NewSink(Config{Topic: "t"})
			So(errors.Is(err, ErrNoBrokers), ShouldBeTrue)
		})

		Convey("Then a topic is required", func() {
			_, err := NewSink(Config{Brokers: []string{"localhost:9092"}, Topic: " "})
			So(errors.Is(err, ErrNoTopic), ShouldBeTrue)
		})

		Convey("Then a valid config builds a writer without dialing", func() {
			s, err := NewSink(Config{Brokers: []string{"localhost:9092"}, Topic: "predictions"})
			So(err, ShouldBeNil)
			So(s.Topic(), ShouldEqual, "predictions")
			So(s.Close(), ShouldBeNil)
		})
	})

	Convey("Given a broker list string", t, func() {
		So(ParseBrokers("a:9092, b:9092,,"), ShouldResemble, []string{"a:9092", "b:9092"})
		So(ParseBrokers(""), ShouldBeNil)
	})
}
