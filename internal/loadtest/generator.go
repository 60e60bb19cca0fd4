package loadtest

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/wattcast/internal/domain/reading"
	"github.com/okian/wattcast/pkg/logger"
)

// Reading ranges, roughly those of the household power dataset.
const (
	maxIntensity   = 40.0
	maxSubMetering = 80.0
)

// generateUsers returns n unique usernames.
func generateUsers(n int) []string {
	users := make([]string, n)
	for i := range users {
		users[i] = "lt-" + uuid.NewString()[:8] + "-" + strconv.Itoa(i)
	}
	return users
}

// generateRequests builds PredictionsPer requests for every user. Every
// InvalidEvery-th request overall is made invalid, alternating between a
// non-numeric and an out-of-range reading.
func generateRequests(ctx context.Context, config *Config, users []string, stats *Stats) map[string][]Request {
	rng := rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // load data, not secrets

	out := make(map[string][]Request, len(users))
	n := 0
	for _, user := range users {
		reqs := make([]Request, 0, config.PredictionsPer)
		for i := 0; i < config.PredictionsPer; i++ {
			n++
			req := Request{User: user, Fields: randomFields(rng), Valid: true}
			if config.InvalidEvery > 0 && n%config.InvalidEvery == 0 {
				invalidate(&req, n/config.InvalidEvery)
			}
			reqs = append(reqs, req)
		}
		out[user] = reqs
	}

	stats.PredictionsGenerated = n
	logger.Get().Info(ctx, "generated prediction requests", logger.Int("users", len(users)), logger.Int("requests", n))
	return out
}

// randomFields returns a valid reading. Half of the values use a decimal
// comma, which the service accepts.
func randomFields(rng *rand.Rand) map[string]string {
	values := map[string]float64{
		reading.FieldGlobalReactivePower: rng.Float64(),
		reading.FieldGlobalIntensity:     rng.Float64() * maxIntensity,
		reading.FieldSubMetering1:        float64(rng.IntN(int(maxSubMetering))),
		reading.FieldSubMetering2:        float64(rng.IntN(int(maxSubMetering))),
		reading.FieldSubMetering3:        float64(rng.IntN(int(maxSubMetering))),
	}
	comma := rng.IntN(2) == 0

	fields := make(map[string]string, len(values))
	for k, v := range values {
		s := strconv.FormatFloat(v, 'f', 3, 64)
		if comma {
			s = strings.Replace(s, ".", ",", 1)
		}
		fields[k] = s
	}
	return fields
}

func invalidate(req *Request, k int) {
	req.Valid = false
	if k%2 == 0 {
		req.Fields[reading.FieldGlobalIntensity] = "n/a"
		return
	}
	req.Fields[reading.FieldGlobalReactivePower] = "1.5"
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
