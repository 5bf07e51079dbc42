package domain

// IngestionDetail records the outcome of one paper within an ingestion run.
type IngestionDetail struct {
	Source     string `json:"source"`
	ExternalID string `json:"external_id,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IngestionResult summarizes a full ingestion run across all sources.
type IngestionResult struct {
	RunID         string            `json:"run_id"`
	Discovered    int               `json:"discovered"`
	Downloaded    int               `json:"downloaded"`
	Enriched      int               `json:"enriched"`
	Persisted     int               `json:"persisted"`
	ManualTrigger bool              `json:"manual_trigger"`
	Details       []IngestionDetail `json:"details"`
}
