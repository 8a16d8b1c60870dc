package handler

import (
	"net/http"
	"time"
)

// HealthResponse is the body of the health probe.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Time   string `json:"time"`
}

// Health answers 200 while check returns nil and 503 otherwise.
func Health(check func() error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Time:   time.Now().UTC().Format(time.RFC3339),
		}
		status := http.StatusOK
		if err := check(); err != nil {
			resp.Status = "unavailable"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
		WriteJSON(w, status, resp)
	})
}
