package health

import "context"

type Response struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Store   string `json:"store,omitempty"`
}

type PingResponse struct {
	Message string `json:"message"`
}

// reports whether the backing store answers
type Pinger interface {
	Ping(ctx context.Context) error
}
