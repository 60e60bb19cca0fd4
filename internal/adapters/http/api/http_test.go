package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/wattcast/internal/adapters/http/api"
	"github.com/okian/wattcast/internal/adapters/repository"
	service "github.com/okian/wattcast/internal/app"
	"github.com/okian/wattcast/internal/domain/advice"
	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/internal/domain/reading"
	"github.com/okian/wattcast/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var sessionExpiry = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// fakeDeps records calls and returns canned answers.
type fakeDeps struct {
	mu sync.Mutex

	outcome       model.Outcome
	legacyOutcome model.Outcome
	history       []model.HistoryRecord

	predictUser   string
	predictFields map[string]string
	contacts      []model.ContactMessage
	revoked       map[string]bool
}

func (f *fakeDeps) HandlePredictionRequest(_ context.Context, userID string, fields map[string]string) model.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predictUser, f.predictFields = userID, fields
	return f.outcome
}

func (f *fakeDeps) HandleLegacyPredictionRequest(_ context.Context, fields map[string]string) model.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predictFields = fields
	return f.legacyOutcome
}

func (f *fakeDeps) GetHistory(_ context.Context, userID string) []model.HistoryRecord {
	if userID != "alice" {
		return []model.HistoryRecord{}
	}
	return f.history
}

func (f *fakeDeps) Register(_ context.Context, username, password string) error {
	switch {
	case strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "":
		return repository.ErrEmptyCredentials
	case username == "admin":
		return repository.ErrUserExists
	}
	return nil
}

func (f *fakeDeps) Login(_ context.Context, username, password string) (string, time.Time, error) {
	if username == "alice" && password == "pw" {
		return "good-token", sessionExpiry, nil
	}
	return "", time.Time{}, repository.ErrInvalidCredentials
}

func (f *fakeDeps) Authenticate(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token == "good-token" && !f.revoked[token] {
		return "alice", nil
	}
	return "", service.ErrInvalidSession
}

func (f *fakeDeps) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token != "good-token" {
		return service.ErrInvalidSession
	}
	if f.revoked == nil {
		f.revoked = make(map[string]bool)
	}
	f.revoked[token] = true
	return nil
}

func (f *fakeDeps) Contact(_ context.Context, msg model.ContactMessage) error {
	if strings.TrimSpace(msg.Message) == "" {
		return service.ErrEmptyMessage
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, msg)
	return nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newRouter(deps *fakeDeps) http.Handler {
	r := chi.NewRouter()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}).Register(context.Background(), r)
	return r
}

func do(h http.Handler, method, path, contentType, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) types.Error {
	var e types.Error
	So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
	return e
}

const formType = "application/x-www-form-urlencoded"

func TestPredictEndpoint(t *testing.T) {
	Convey("Given a router with a successful prediction outcome", t, func() {
		deps := &fakeDeps{outcome: model.Success{Result: model.PredictionResult{
			Value:          1.23456789,
			TopSubmeter:    advice.Submeter2,
			Recommendation: advice.Message(advice.Submeter2),
		}}}
		h := newRouter(deps)

		Convey("When posting without a session", func() {
			w := do(h, http.MethodPost, "/predict", formType, "grp=0.5", "")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(decodeError(w).Code, ShouldEqual, "unauthorized")
			})
		})

		Convey("When posting with an invalid token", func() {
			w := do(h, http.MethodPost, "/predict", formType, "grp=0.5", "forged")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When posting a form with a bearer token", func() {
			form := url.Values{"grp": {"0,5"}, "gi": {"3"}, "sm1": {"1"}, "sm2": {"9"}, "sm3": {"2"}}
			w := do(h, http.MethodPost, "/predict", formType, form.Encode(), "good-token")

			Convey("Then the prediction is returned for the session user", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var p types.Prediction
				So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
				So(p.Prediction, ShouldEqual, 1.23456789)
				So(p.TopSubmeter, ShouldEqual, 2)
				So(p.Recommendation, ShouldEqual, "Laundry or water heating appliances are consuming most energy.")
				So(deps.predictUser, ShouldEqual, "alice")
				So(deps.predictFields["grp"], ShouldEqual, "0,5")
				So(deps.predictFields["sm2"], ShouldEqual, "9")
			})
		})

		Convey("When posting JSON numbers with the session cookie", func() {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"grp":0.25,"gi":"3","sm1":1,"sm2":2,"sm3":3}`))
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(&http.Cookie{Name: api.SessionCookie, Value: "good-token"})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then the numbers reach the service as text", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.predictFields["grp"], ShouldEqual, "0.25")
				So(deps.predictFields["gi"], ShouldEqual, "3")
				So(len(deps.predictFields), ShouldEqual, len(reading.Fields))
			})
		})

		Convey("When posting malformed JSON", func() {
			w := do(h, http.MethodPost, "/predict", "application/json", `{"grp":`, "good-token")

			Convey("Then a bad request is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given a router that reports a validation failure", t, func() {
		deps := &fakeDeps{outcome: model.ValidationFailure{
			Reason:  reading.ReasonOutOfRange,
			Message: reading.ErrOutOfRange.Message,
		}}
		h := newRouter(deps)

		w := do(h, http.MethodPost, "/predict", formType, "grp=1.5", "good-token")

		Convey("Then 422 carries the reason and the user-facing message", func() {
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			e := decodeError(w)
			So(e.Code, ShouldEqual, "out_of_range")
			So(e.Message, ShouldEqual, "Global reactive power must be between 0 and 1.")
		})
	})

	Convey("Given a router that reports a pipeline failure", t, func() {
		deps := &fakeDeps{outcome: model.PipelineFailure{
			Detail:         "pipeline scaler: shape mismatch",
			TopSubmeter:    advice.Submeter1,
			Recommendation: advice.Message(advice.Submeter1),
		}}
		h := newRouter(deps)

		w := do(h, http.MethodPost, "/predict", formType, "grp=0.5", "good-token")

		Convey("Then 500 with pipeline_error and the recommendation is returned", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			e := decodeError(w)
			So(e.Code, ShouldEqual, "pipeline_error")
			So(e.Recommendation, ShouldEqual, advice.Message(advice.Submeter1))
			So(w.Body.String(), ShouldNotContainSubstring, "shape mismatch")
		})
	})
}

func TestLegacyPredictEndpoint(t *testing.T) {
	Convey("Given a router with a legacy outcome", t, func() {
		deps := &fakeDeps{legacyOutcome: model.ValidationFailure{
			Reason:  reading.ReasonNonNumeric,
			Message: reading.ErrNonNumeric.Message,
		}}
		h := newRouter(deps)

		Convey("When posting without a session", func() {
			w := do(h, http.MethodPost, "/legacy/predict", formType, "grp=abc", "")

			Convey("Then the legacy interface answers without authentication", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(w).Message, ShouldEqual, "Please enter only numeric values.")
				So(deps.predictFields["grp"], ShouldEqual, "abc")
			})
		})
	})
}

func TestAccountEndpoints(t *testing.T) {
	Convey("Given a router", t, func() {
		h := newRouter(&fakeDeps{})

		Convey("When registering a new user", func() {
			w := do(h, http.MethodPost, "/register", formType, "username=bob&password=pw", "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Body.String(), ShouldContainSubstring, "Registration successful!")
		})

		Convey("When registering with an empty field", func() {
			w := do(h, http.MethodPost, "/register", "application/json", `{"username":"bob","password":" "}`, "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Message, ShouldEqual, "Please fill in all fields.")
		})

		Convey("When registering a taken username", func() {
			w := do(h, http.MethodPost, "/register", formType, "username=admin&password=x", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeError(w).Message, ShouldEqual, "Username already exists.")
		})

		Convey("When logging in with valid credentials", func() {
			w := do(h, http.MethodPost, "/login", "application/json", `{"username":"alice","password":"pw"}`, "")

			Convey("Then a token is returned and set as the session cookie", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var s types.Session
				So(json.Unmarshal(w.Body.Bytes(), &s), ShouldBeNil)
				So(s.Token, ShouldEqual, "good-token")
				So(s.ExpiresAt.Equal(sessionExpiry), ShouldBeTrue)

				cookies := w.Result().Cookies()
				So(len(cookies), ShouldEqual, 1)
				So(cookies[0].Name, ShouldEqual, api.SessionCookie)
				So(cookies[0].Value, ShouldEqual, "good-token")
				So(cookies[0].HttpOnly, ShouldBeTrue)
			})
		})

		Convey("When logging in with a wrong password", func() {
			w := do(h, http.MethodPost, "/login", formType, "username=alice&password=nope", "")

			Convey("Then the original message is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(decodeError(w).Message, ShouldEqual, "Invalid credentials. Try again.")
			})
		})

		Convey("When logging out", func() {
			w := do(h, http.MethodPost, "/logout", "", "", "good-token")

			Convey("Then the cookie is cleared", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				cookies := w.Result().Cookies()
				So(len(cookies), ShouldEqual, 1)
				So(cookies[0].MaxAge, ShouldBeLessThan, 0)
			})

			Convey("Then the bearer token is rejected afterwards", func() {
				again := do(h, http.MethodGet, "/history", "", "", "good-token")
				So(again.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})
	})
}

func TestHistoryEndpoint(t *testing.T) {
	Convey("Given a user with one record", t, func() {
		ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
		deps := &fakeDeps{history: []model.HistoryRecord{{
			ID: "r1", Timestamp: ts, GRP: 0.5, GI: 3, SM1: 1, SM2: 9, SM3: 2,
			Prediction: 1.5, TopSubmeter: advice.Submeter2,
		}}}
		h := newRouter(deps)

		w := do(h, http.MethodGet, "/history", "", "", "good-token")

		Convey("Then the records are returned with formatted datetimes", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			var rows []types.HistoryEntry
			So(json.Unmarshal(w.Body.Bytes(), &rows), ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Datetime, ShouldEqual, "2025-03-04 05:06:07")
			So(rows[0].TopSubmeter, ShouldEqual, 2)
		})

		Convey("Then an anonymous request is rejected", func() {
			w := do(h, http.MethodGet, "/history", "", "", "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})
	})

	Convey("Given a user with no records", t, func() {
		h := newRouter(&fakeDeps{})
		w := do(h, http.MethodGet, "/history", "", "", "good-token")

		Convey("Then an empty JSON list is returned", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})
	})
}

func TestContactEndpoint(t *testing.T) {
	Convey("Given a router", t, func() {
		deps := &fakeDeps{}
		h := newRouter(deps)

		Convey("When a logged-in user sends a message", func() {
			form := url.Values{"name": {"Alice"}, "email": {"a@example.com"}, "message": {"hello"}}
			w := do(h, http.MethodPost, "/contact", formType, form.Encode(), "good-token")

			Convey("Then it is accepted and attributed to the session user", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(len(deps.contacts), ShouldEqual, 1)
				So(deps.contacts[0].User, ShouldEqual, "alice")
				So(deps.contacts[0].Email, ShouldEqual, "a@example.com")
			})
		})

		Convey("When the message is empty", func() {
			w := do(h, http.MethodPost, "/contact", formType, "name=Alice&message=", "good-token")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(len(deps.contacts), ShouldEqual, 0)
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a router", t, func() {
		h := newRouter(&fakeDeps{})

		Convey("Then /healthz reports ok", func() {
			w := do(h, http.MethodGet, "/healthz", "", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then /metrics serves the registry", func() {
			do(h, http.MethodGet, "/healthz", "", "", "")
			w := do(h, http.MethodGet, "/metrics", "", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a router", t, func() {
		h := newRouter(&fakeDeps{})
		w := do(h, http.MethodGet, "/stats", "", "", "")

		Convey("Then the provider's stats are returned", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("Then other methods are not allowed", func() {
			w := do(h, http.MethodPost, "/stats", "", "", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
