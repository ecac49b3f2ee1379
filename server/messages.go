package server

// Message types sent on the generation websocket.
const (
	TypeProgress = "progress"
	TypeDone     = "done"
	TypeError    = "error"
)

// UploadResponse is returned by POST /api/uploads.
type UploadResponse struct {
	UploadID string `json:"upload_id"`
	Chunks   int    `json:"chunks"`
}

// ProgressMessage reports the completed chunk count of a run.
type ProgressMessage struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Text      string `json:"text"`
}

// DoneMessage ends a successful run.
type DoneMessage struct {
	Type        string `json:"type"`
	RunID       string `json:"run_id"`
	Subject     string `json:"subject"`
	Total       int    `json:"total"`
	Failed      int    `json:"failed"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
}

// ErrorMessage ends a failed run.
type ErrorMessage struct {
	Type    string `json:"type"`
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}
