package model

import "time"

// Resume is an uploaded resume file with its extracted text.
type Resume struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	FileName   string    `json:"fileName"`
	ObjectKey  string    `json:"-"`
	SizeBytes  int64     `json:"sizeBytes"`
	ResumeText *string   `json:"-"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// HasText reports whether text could be extracted from the file.
func (r *Resume) HasText() bool {
	return r != nil && r.ResumeText != nil && *r.ResumeText != ""
}

// Analysis status values.
const (
	AnalysisQueued = "queued"
	AnalysisDone   = "done"
	AnalysisFailed = "failed"
)

// Analysis is the feedback produced for one resume.
type Analysis struct {
	JobID           string    `json:"jobId,omitempty"`
	Status          string    `json:"status,omitempty"`
	OverallScore    int       `json:"overallScore"`
	Strengths       []string  `json:"strengths"`
	Improvements    []string  `json:"improvements"`
	SkillsMatch     int       `json:"skillsMatch"`
	Recommendations []string  `json:"recommendations"`
	ATSScore        int       `json:"atsScore"`
	MissingKeywords []string  `json:"missingKeywords"`
	Summary         string    `json:"summary"`
	FileName        string    `json:"fileName"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
	FileSize        int64     `json:"fileSize"`
}

// AnalysisRecord is the persisted form of an analysis.
type AnalysisRecord struct {
	ID         int64
	UserID     int64
	JobID      string
	Status     string
	FileName   string
	FileSize   int64
	Payload    []byte
	AnalyzedAt time.Time
}

// AnalysisJob is the queued request for an asynchronous analysis.
type AnalysisJob struct {
	JobID          string    `json:"jobId"`
	UserID         int64     `json:"userId"`
	FileName       string    `json:"fileName"`
	FileSize       int64     `json:"fileSize"`
	ResumeText     string    `json:"resumeText"`
	JobDescription string    `json:"jobDescription,omitempty"`
	RequestedAt    time.Time `json:"requestedAt"`
}
