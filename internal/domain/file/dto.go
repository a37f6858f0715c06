package file

import (
	"mime"
	"time"
)

// RecordResponse is the wire form of a Record.
type RecordResponse struct {
	ID         string  `json:"id"`
	Filename   string  `json:"filename"`
	Extension  string  `json:"extension"`
	Size       int64   `json:"size"`
	Filepath   string  `json:"filepath"`
	CreatedAt  *string `json:"created_at"`
	ModifiedAt *string `json:"modified_at"`
	Comment    string  `json:"comment"`
}

// UploadMetadata is the JSON carried in the "json" form field of an upload.
type UploadMetadata struct {
	Filepath string `json:"filepath" validate:"max=1024"`
	Comment  string `json:"comment" validate:"max=255"`
}

func toResponse(r *Record) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		Filename:   r.Filename,
		Extension:  r.Extension,
		Size:       r.Size,
		Filepath:   r.Filepath,
		CreatedAt:  isoTime(&r.CreatedAt),
		ModifiedAt: isoTime(r.ModifiedAt),
		Comment:    r.Comment,
	}
}

func toResponses(records []*Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toResponse(r))
	}
	return out
}

func isoTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func mimeAttachment(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
