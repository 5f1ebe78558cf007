package models

import "time"

type ProxyEndpoint struct {
	ID       int    `yaml:"-" json:"id"`
	Provider string `yaml:"-" json:"provider"`
	Region   string `yaml:"region" json:"region"`
	URL      string `yaml:"url" json:"url"`
}

// ProxyStatus is the outcome of one health check against one endpoint.
type ProxyStatus struct {
	ProxyEndpoint
	Status      string    `json:"status"`
	Healthy     bool      `json:"healthy"`
	PublicIP    string    `json:"public_ip"`
	Batch       string    `json:"batch"`
	LastChecked time.Time `json:"last_checked"`
	LatencyMs   int64     `json:"latency_ms"`
	Error       string    `json:"error,omitempty"`
}

// ProxyHealthBody is the JSON served by GET {endpoint}/health/google.
type ProxyHealthBody struct {
	Status   string `json:"status"`
	PublicIP string `json:"public_ip"`
	Region   string `json:"region"`
}

// ProxySnapshot is one completed batch of checks.
type ProxySnapshot struct {
	Statuses   []ProxyStatus `json:"statuses"`
	CheckedAt  time.Time     `json:"checked_at"`
	DurationMs int64         `json:"duration_ms"`
	Healthy    int           `json:"healthy"`
	Unhealthy  int           `json:"unhealthy"`
}

type ProxyFilter struct {
	Search   string
	Provider string
	Region   string
	Health   string
}
