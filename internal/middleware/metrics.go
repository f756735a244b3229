package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores process-wide counters. Nothing here is per user.
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	RequestsThrottled  uint64
	AnalysesTotal      uint64
	AnalysesFailed     uint64
	DocumentsTotal     uint64
	DocumentsRejected  uint64
	DocumentsFailed    uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

func IncrementRequests()   { atomic.AddUint64(&globalMetrics.RequestsTotal, 1) }
func IncrementInProgress() { atomic.AddUint64(&globalMetrics.RequestsInProgress, 1) }
func DecrementInProgress() { atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0)) }
func IncrementSuccess()    { atomic.AddUint64(&globalMetrics.RequestsSuccess, 1) }
func IncrementFailed()     { atomic.AddUint64(&globalMetrics.RequestsFailed, 1) }
func IncrementThrottled()  { atomic.AddUint64(&globalMetrics.RequestsThrottled, 1) }

// IncrementAnalyses counts one analysis round trip.
func IncrementAnalyses() { atomic.AddUint64(&globalMetrics.AnalysesTotal, 1) }

func IncrementAnalysesFailed() { atomic.AddUint64(&globalMetrics.AnalysesFailed, 1) }

// IncrementDocuments counts one upload-and-extract run, admitted or not.
func IncrementDocuments() { atomic.AddUint64(&globalMetrics.DocumentsTotal, 1) }

// IncrementDocumentsRejected counts files stopped by the local admission check.
func IncrementDocumentsRejected() { atomic.AddUint64(&globalMetrics.DocumentsRejected, 1) }

func IncrementDocumentsFailed() { atomic.AddUint64(&globalMetrics.DocumentsFailed, 1) }

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"requests_throttled":   atomic.LoadUint64(&globalMetrics.RequestsThrottled),
		"analyses_total":       atomic.LoadUint64(&globalMetrics.AnalysesTotal),
		"analyses_failed":      atomic.LoadUint64(&globalMetrics.AnalysesFailed),
		"documents_total":      atomic.LoadUint64(&globalMetrics.DocumentsTotal),
		"documents_rejected":   atomic.LoadUint64(&globalMetrics.DocumentsRejected),
		"documents_failed":     atomic.LoadUint64(&globalMetrics.DocumentsFailed),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GetMetrics())
}
