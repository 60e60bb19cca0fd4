package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/wattcast/internal/domain/advice"
	model "github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/internal/domain/reading"
	"github.com/smartystreets/goconvey/convey"
)

func TestHistoryRecord(t *testing.T) {
	convey.Convey("Given a reading set and a prediction result", t, func() {
		rs := reading.ReadingSet{GlobalReactivePower: 0.2, GlobalIntensity: 3, SubMetering1: 1, SubMetering2: 9, SubMetering3: 2}
		res := model.PredictionResult{Value: 1.25, TopSubmeter: advice.Submeter2, Recommendation: advice.Message(advice.Submeter2)}
		ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

		convey.Convey("When a history record is built", func() {
			rec := model.NewHistoryRecord("rec-1", ts, rs, res)

			convey.Convey("Then it captures inputs and result", func() {
				convey.So(rec.ID, convey.ShouldEqual, "rec-1")
				convey.So(rec.Timestamp, convey.ShouldEqual, ts)
				convey.So(rec.GRP, convey.ShouldEqual, 0.2)
				convey.So(rec.SM2, convey.ShouldEqual, 9.0)
				convey.So(rec.Prediction, convey.ShouldEqual, 1.25)
				convey.So(rec.TopSubmeter, convey.ShouldEqual, advice.Submeter2)
			})

			convey.Convey("Then the readings round-trip", func() {
				convey.So(rec.Readings(), convey.ShouldResemble, rs)
			})
		})
	})
}

func TestOutcomeKinds(t *testing.T) {
	convey.Convey("Given each outcome variant", t, func() {
		outcomes := map[model.OutcomeKind]model.Outcome{
			model.KindSuccess:           model.Success{},
			model.KindValidationFailure: model.ValidationFailure{Reason: reading.ReasonOutOfRange},
			model.KindPipelineFailure:   model.PipelineFailure{Detail: "boom"},
		}

		convey.Convey("Then each reports its own kind", func() {
			for kind, o := range outcomes {
				convey.So(o.Kind(), convey.ShouldEqual, kind)
			}
		})

		convey.Convey("Then a type switch separates them", func() {
			var o model.Outcome = model.ValidationFailure{Reason: reading.ReasonNonNumeric}
			switch v := o.(type) {
			case model.ValidationFailure:
				convey.So(v.Reason, convey.ShouldEqual, reading.ReasonNonNumeric)
			default:
				convey.So(false, convey.ShouldBeTrue)
			}
		})
	})
}

func TestPredictionEventPayload(t *testing.T) {
	convey.Convey("Given a prediction event", t, func() {
		ev := model.PredictionEvent{
			ID:          "ev-1",
			User:        "admin",
			Interface:   model.InterfacePrimary,
			Timestamp:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Inputs:      reading.ReadingSet{GlobalReactivePower: 0.5},
			Voltage:     240,
			Prediction:  2.5,
			TopSubmeter: 1,
		}

		convey.Convey("When encoded as JSON", func() {
			b, err := json.Marshal(ev)
			convey.So(err, convey.ShouldBeNil)
			var got map[string]any
			convey.So(json.Unmarshal(b, &got), convey.ShouldBeNil)

			convey.Convey("Then field names follow the payload contract", func() {
				convey.So(got["id"], convey.ShouldEqual, "ev-1")
				convey.So(got["interface"], convey.ShouldEqual, "primary")
				convey.So(got["top_submeter"], convey.ShouldEqual, 1.0)
				inputs, ok := got["inputs"].(map[string]any)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(inputs["grp"], convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When the user is empty", func() {
			ev.User = ""
			b, err := json.Marshal(ev)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the user field is omitted", func() {
				convey.So(string(b), convey.ShouldNotContainSubstring, `"user"`)
			})
		})
	})
}
