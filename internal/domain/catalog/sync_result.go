package catalog

// SyncError records one recovered per-record or per-asset failure
// accumulated during a sync pass.
type SyncError struct {
	RecordID string `json:"recordId,omitempty"`
	Field    string `json:"field,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// SyncResult summarizes a full-refresh pass. Callers must inspect
// Errors, not just the transport-level success flag: the pass follows
// a partial-success model.
type SyncResult struct {
	Environment        Environment `json:"environment"`
	SyncedCount        int         `json:"syncedCount"`
	TotalRecords       int         `json:"totalRecords"`
	FinalDatabaseCount int64       `json:"finalDatabaseCount"`
	Errors             []SyncError `json:"errors"`
}
