package api

import "time"

// WorkbookResponse describes the loaded workbook.
type WorkbookResponse struct {
	Name     string    `json:"name"`
	Sheets   []string  `json:"sheets"`
	LoadedAt time.Time `json:"loaded_at"`
}

// WorkbookFile is a workbook stored in the data directory.
type WorkbookFile struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ColumnInfo is a column identifier with its header metadata.
type ColumnInfo struct {
	ID          string `json:"id"`
	Frequency   string `json:"frequency"`
	Description string `json:"description"`
}

// ExportFailure names an item that could not be placed on a slide.
type ExportFailure struct {
	Sheet  string `json:"sheet"`
	Column string `json:"column"`
	Error  string `json:"error"`
}

// ExportResponse is the outcome of an export request.
type ExportResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Succeeded   int             `json:"succeeded"`
	Failed      []ExportFailure `json:"failed"`
	DownloadURL string          `json:"download_url"`
	CreatedAt   time.Time       `json:"created_at"`
}
