package respond

type UploadRespond struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
}

type DocumentItem struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
	UploadedAt string `json:"uploaded_at"`
}

type DocumentListRespond struct {
	Documents []DocumentItem `json:"documents"`
}

type DeleteRespond struct {
	Success bool `json:"success"`
}
