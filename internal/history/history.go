package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// UploadRecord describes one successful ingestion.
type UploadRecord struct {
	Time   string `json:"time"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	DocID  string `json:"doc_id"`
	Chunks int    `json:"chunks"`
}

// QueryRecord describes one answered question.
type QueryRecord struct {
	Time     string `json:"time"`
	Question string `json:"question"`
}

// Log is the append-only history file: uploads and queries, newest first.
// The answering core never touches it; callers append records after each
// successful ingest or answer.
type Log struct {
	Uploads []UploadRecord `json:"uploads"`
	Queries []QueryRecord  `json:"queries"`
}

// File reads and writes a history log at a fixed path.
type File struct {
	path string
}

// NewFile creates a history file handle. The file need not exist yet.
func NewFile(path string) *File { return &File{path: path} }

// Read returns the current log; a missing or unreadable file yields an
// empty log.
func (f *File) Read() Log {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Log{}
	}
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return Log{}
	}
	return l
}

// AddUpload prepends an upload record.
func (f *File) AddUpload(kind, title, docID string, chunks int) error {
	l := f.Read()
	rec := UploadRecord{Time: now(), Type: kind, Title: title, DocID: docID, Chunks: chunks}
	l.Uploads = append([]UploadRecord{rec}, l.Uploads...)
	return f.write(l)
}

// AddQuery prepends a query record.
func (f *File) AddQuery(question string) error {
	l := f.Read()
	rec := QueryRecord{Time: now(), Question: question}
	l.Queries = append([]QueryRecord{rec}, l.Queries...)
	return f.write(l)
}

// ClearUploads removes all upload records.
func (f *File) ClearUploads() error {
	l := f.Read()
	l.Uploads = nil
	return f.write(l)
}

// ClearQueries removes all query records.
func (f *File) ClearQueries() error {
	l := f.Read()
	l.Queries = nil
	return f.write(l)
}

func (f *File) write(l Log) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o644)
}

func now() string { return time.Now().Format("2006-01-02 15:04:05") }
