package health

import "time"

const (
	serviceName = "citelens"
	version     = "1.0.0"
)

// liveness body served on /health
type Response struct {
	Status  string    `json:"status"`
	Service string    `json:"service"`
	Version string    `json:"version,omitempty"`
	Time    time.Time `json:"time"`
}

type PingResponse struct {
	Message string `json:"message"`
}
