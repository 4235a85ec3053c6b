// Package artifacts exports finished application materials to the
// filesystem so they can be downloaded or fed into rendering tools.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmatsuda/application-tailor/internal/job"
)

// Artifact kinds.
const (
	KindResume      = "resume"
	KindCoverLetter = "cover_letter"
	KindAuditReport = "audit_report"
)

var kindFiles = map[string]string{
	KindResume:      "resume.md",
	KindCoverLetter: "cover_letter.md",
	KindAuditReport: "audit_report.json",
}

// Store writes artifacts under baseDir/<job-id>/.
type Store struct {
	baseDir string
}

// NewStore builds a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Export writes every available artifact for a completed job and returns
// the paths written, keyed by kind. Jobs without a cover letter simply
// skip that artifact.
func (s *Store) Export(j *job.Job) (map[string]string, error) {
	dir := filepath.Join(s.baseDir, j.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}

	written := make(map[string]string)

	if j.FinalResume != "" {
		path := filepath.Join(dir, kindFiles[KindResume])
		if err := os.WriteFile(path, []byte(j.FinalResume), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write resume artifact: %w", err)
		}
		written[KindResume] = path
	}

	if j.CoverLetter != "" {
		path := filepath.Join(dir, kindFiles[KindCoverLetter])
		if err := os.WriteFile(path, []byte(j.CoverLetter), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write cover letter artifact: %w", err)
		}
		written[KindCoverLetter] = path
	}

	if j.AuditReport != nil {
		report, err := json.MarshalIndent(j.AuditReport, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit report: %w", err)
		}
		path := filepath.Join(dir, kindFiles[KindAuditReport])
		if err := os.WriteFile(path, report, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write audit report artifact: %w", err)
		}
		written[KindAuditReport] = path
	}

	return written, nil
}

// Read returns the content of one exported artifact.
func (s *Store) Read(jobID, kind string) ([]byte, error) {
	file, ok := kindFiles[kind]
	if !ok {
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, jobID, file))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s artifact: %w", kind, err)
	}
	return data, nil
}
