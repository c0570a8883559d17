package models

import "strings"

// File is a source document. Nullable text fields decode to "".
type File struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	CleanName       *string    `json:"clean_name,omitempty"`
	Type            string     `json:"type,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	Source          string     `json:"source,omitempty"`
	PublishedDate   string     `json:"published_date,omitempty"`
	S3Bucket        string     `json:"s3_bucket,omitempty"`
	S3Key           string     `json:"s3_key,omitempty"`
	StorageKind     string     `json:"storage_kind,omitempty"`
	URL             string     `json:"url,omitempty"`
	CreatedDatetime Timestamp  `json:"created_datetime"`
	UpdatedDatetime *Timestamp `json:"updated_datetime,omitempty"`
}

// DisplayName prefers the cleaned name when the backend provided one.
func (f File) DisplayName() string {
	if f.CleanName != nil && *f.CleanName != "" {
		return *f.CleanName
	}
	return f.Name
}

// Chunk is an excerpt of a file used as evidence. Idx is its position
// within the file.
type Chunk struct {
	ID              string     `json:"id"`
	Idx             int        `json:"idx"`
	PageNum         int        `json:"page_num"`
	Text            string     `json:"text"`
	File            *File      `json:"file,omitempty"`
	CreatedDatetime Timestamp  `json:"created_datetime"`
	UpdatedDatetime *Timestamp `json:"updated_datetime,omitempty"`
}

// User is the account a rating belongs to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Project holds review metadata.
type Project struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	ResultsSummary *string    `json:"results_summary,omitempty"`
	CreatedDate    Timestamp  `json:"created_datetime"`
	UpdatedDate    *Timestamp `json:"updated_datetime,omitempty"`
}

// BaseName strips the deployment suffix from a project name ("alpha-dev" -> "alpha").
func (p Project) BaseName() string {
	name, _, _ := strings.Cut(p.Name, "-")
	return name
}

// Summary returns the rich-text results summary, or "".
func (p Project) Summary() string {
	if p.ResultsSummary == nil {
		return ""
	}
	return *p.ResultsSummary
}
