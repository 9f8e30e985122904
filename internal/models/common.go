package models

// ErrorResponse is a standardized error response for API
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageResponse is returned by endpoints that have nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports dependency status and realtime load.
type HealthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	ActiveLists int               `json:"activeLists"`
	SocketUsers int               `json:"socketUsers"`
	Broadcast   *BroadcastStats   `json:"broadcast,omitempty"`
}

// BroadcastStats aggregates fan-out results since the process started.
type BroadcastStats struct {
	Broadcasts       int64 `json:"broadcasts"`
	Delivered        int64 `json:"delivered"`
	Pruned           int64 `json:"pruned"`
	PeakDurationMs   int64 `json:"peakDurationMs"`
	PeakFanout       int   `json:"peakFanout"`
	PeakPayloadBytes int   `json:"peakPayloadBytes"`
}
