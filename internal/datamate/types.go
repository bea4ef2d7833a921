package datamate

import "time"

const serverTimestampLayout = "2006-01-02 15:04:05"

// Dataset mirrors an entry of /api/data-management/datasets.
type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DatasetType string   `json:"datasetType"`
	Status      string   `json:"status"`
	FileCount   int      `json:"fileCount"`
	TotalSize   int64    `json:"totalSize"`
	Tags        []string `json:"tags"`
	CreatedBy   string   `json:"createdBy"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (d Dataset) ParsedUpdatedAt() time.Time {
	return parseTime(d.UpdatedAt)
}

// AnnotationTask describes a labelling job over a dataset.
type AnnotationTask struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DatasetID      string `json:"datasetId"`
	DatasetName    string `json:"datasetName"`
	Status         string `json:"status"`
	TotalCount     int    `json:"totalCount"`
	CompletedCount int    `json:"completedCount"`
	Assignee       string `json:"assignee"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// Progress returns the completed fraction in [0, 1].
func (a AnnotationTask) Progress() float64 {
	if a.TotalCount <= 0 {
		return 0
	}
	p := float64(a.CompletedCount) / float64(a.TotalCount)
	if p > 1 {
		return 1
	}
	return p
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (a AnnotationTask) ParsedUpdatedAt() time.Time {
	return parseTime(a.UpdatedAt)
}

// CleansingTask describes a cleansing pipeline run.
type CleansingTask struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DatasetName  string            `json:"srcDatasetName"`
	Status       string            `json:"status"`
	Progress     CleansingProgress `json:"progress"`
	Operators    []string          `json:"operators"`
	ErrorMessage string            `json:"errorMessage"`
	StartedAt    string            `json:"startedAt"`
	FinishedAt   string            `json:"finishedAt"`
	CreatedAt    string            `json:"createdAt"`
}

// CleansingProgress tracks processed files for a cleansing run.
type CleansingProgress struct {
	Process     float64 `json:"process"`
	TotalFiles  int     `json:"totalFileNum"`
	FinishedNum int     `json:"finishedFileNum"`
}

// ParsedStartedAt returns the parsed StartedAt timestamp.
func (c CleansingTask) ParsedStartedAt() time.Time {
	return parseTime(c.StartedAt)
}

// ParsedFinishedAt returns the parsed FinishedAt timestamp.
func (c CleansingTask) ParsedFinishedAt() time.Time {
	return parseTime(c.FinishedAt)
}

// Operator is a marketplace entry.
type Operator struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Version     string  `json:"version"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Downloads   int     `json:"downloads"`
	Rating      float64 `json:"rating"`
	Installed   bool    `json:"installed"`
}

// KnowledgeBase summarizes an indexed document collection.
type KnowledgeBase struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	DocumentCount  int    `json:"documentCount"`
	ChunkCount     int    `json:"chunkCount"`
	EmbeddingModel string `json:"embeddingModel"`
	UpdatedAt      string `json:"updatedAt"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (k KnowledgeBase) ParsedUpdatedAt() time.Time {
	return parseTime(k.UpdatedAt)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(serverTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
