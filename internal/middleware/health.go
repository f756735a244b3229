package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const checkBudget = 5 * time.Second

// HealthChecker is one dependency check, e.g. the MinIO bucket check.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// runChecks checks every dependency under one shared budget and reports
// whether all of them passed.
func runChecks(ctx context.Context, checkers map[string]HealthChecker) (map[string]CheckStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkBudget)
	defer cancel()

	results := make(map[string]CheckStatus, len(checkers))
	ok := true
	for name, checker := range checkers {
		if err := checker.Check(ctx); err != nil {
			ok = false
			results[name] = CheckStatus{Status: "unhealthy", Message: err.Error()}
			continue
		}
		results[name] = CheckStatus{Status: "healthy"}
	}
	return results, ok
}

// checkedHandler answers 200 with okStatus when every checker passes and
// 503 with failStatus otherwise.
func checkedHandler(checkers map[string]HealthChecker, okStatus, failStatus string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks, ok := runChecks(r.Context(), checkers)
		resp := HealthStatus{Status: okStatus, Timestamp: time.Now(), Checks: checks}
		code := http.StatusOK
		if !ok {
			resp.Status = failStatus
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HealthHandler reports every dependency check.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return checkedHandler(checkers, "healthy", "unhealthy")
}

// ReadinessHandler gates traffic on the same dependency checks, so an
// unreachable bucket takes the instance out of rotation.
func ReadinessHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return checkedHandler(checkers, "ready", "not_ready")
}

// LivenessHandler only proves the process serves HTTP.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
