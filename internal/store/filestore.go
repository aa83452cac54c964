package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"skillpulse/internal/errors"
	"skillpulse/internal/types"
)

// FileStore keeps all assessment state as JSON files under a data
// directory, one subdirectory per employee:
//
//	<dataDir>/questions.json
//	<dataDir>/employees/<id>/profile.json
//	<dataDir>/employees/<id>/answers.json
//	<dataDir>/employees/<id>/answer_summary.txt
//	<dataDir>/employees/<id>/question.json
//
// A single in-process lock serializes writes. Concurrent processes
// against the same directory are not supported.
type FileStore struct {
	mu      sync.RWMutex
	dataDir string
	logger  *errors.Logger
}

// profileDocument is the on-disk shape of an employee profile
type profileDocument struct {
	types.Employee
	Skills []string `json:"skills,omitempty"`
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store rooted at dataDir
func NewFileStore(dataDir string, logger *errors.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, "employees"), 0o755); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("Failed to create data directory %s", dataDir), err)
	}
	return &FileStore{dataDir: dataDir, logger: logger}, nil
}

func (s *FileStore) employeeDir(id string) string {
	return filepath.Join(s.dataDir, "employees", id)
}

// GetEmployee returns the employee profile
func (s *FileStore) GetEmployee(ctx context.Context, id string) (*types.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.readProfile(id)
	if err != nil {
		return nil, err
	}
	emp := doc.Employee
	return &emp, nil
}

// ListEmployees returns all known employees sorted by id
func (s *FileStore) ListEmployees(ctx context.Context) ([]types.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.dataDir, "employees"))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to list employee directories", err)
	}

	employees := make([]types.Employee, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		doc, err := s.readProfile(entry.Name())
		if err != nil {
			// A directory without a readable profile is skipped, not fatal
			if s.logger != nil {
				s.logger.Warn("Skipping employee directory without profile",
					"employee_id", entry.Name(), "error", err.Error())
			}
			continue
		}
		employees = append(employees, doc.Employee)
	}

	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

// GetSkills returns the employee's declared skills
func (s *FileStore) GetSkills(ctx context.Context, employeeID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.readProfile(employeeID)
	if err != nil {
		return nil, err
	}
	return doc.Skills, nil
}

// GetCatalog returns the shared question catalog
func (s *FileStore) GetCatalog(ctx context.Context) ([]types.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.dataDir, "questions.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Question{}, nil
		}
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to read question catalog", err)
	}

	var catalog []types.Question
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to parse question catalog", err)
	}
	return catalog, nil
}

// GetHistory returns the employee's answer ledger. A missing ledger
// file is an empty history, not an error.
func (s *FileStore) GetHistory(ctx context.Context, employeeID string) ([]types.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.readProfile(employeeID); err != nil {
		return nil, err
	}

	path := filepath.Join(s.employeeDir(employeeID), "answers.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.AnswerRecord{}, nil
		}
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to read answer history", err)
	}

	var history []types.AnswerRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to parse answer history", err)
	}
	return history, nil
}

// AppendAnswer appends a record to the employee's ledger
func (s *FileStore) AppendAnswer(ctx context.Context, rec types.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readProfile(rec.EmployeeID); err != nil {
		return err
	}

	path := filepath.Join(s.employeeDir(rec.EmployeeID), "answers.json")
	var history []types.AnswerRecord
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &history); err != nil {
			return errors.NewIOError(errors.ErrCodeStoreFailed,
				"Failed to parse answer history", err)
		}
	} else if !os.IsNotExist(err) {
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to read answer history", err)
	}

	history = append(history, rec)
	return s.writeJSON(path, history)
}

// GetSummary returns the evolving performance summary. A missing
// summary file is an empty summary.
func (s *FileStore) GetSummary(ctx context.Context, employeeID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.readProfile(employeeID); err != nil {
		return "", err
	}

	path := filepath.Join(s.employeeDir(employeeID), "answer_summary.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to read performance summary", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// PutSummary overwrites the performance summary
func (s *FileStore) PutSummary(ctx context.Context, employeeID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readProfile(employeeID); err != nil {
		return err
	}

	path := filepath.Join(s.employeeDir(employeeID), "answer_summary.txt")
	return s.writeFile(path, []byte(summary))
}

// GetPendingQuestion returns the generated question waiting for this
// employee, if any
func (s *FileStore) GetPendingQuestion(ctx context.Context, employeeID string) (*types.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.readProfile(employeeID); err != nil {
		return nil, err
	}

	path := filepath.Join(s.employeeDir(employeeID), "question.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(errors.ErrCodeRecordNotFound,
				fmt.Sprintf("No pending question for employee %s", employeeID), nil)
		}
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to read pending question", err)
	}

	var q types.Question
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to parse pending question", err)
	}
	return &q, nil
}

// PutPendingQuestion overwrites the pending generated question
func (s *FileStore) PutPendingQuestion(ctx context.Context, employeeID string, q types.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readProfile(employeeID); err != nil {
		return err
	}

	path := filepath.Join(s.employeeDir(employeeID), "question.json")
	return s.writeJSON(path, q)
}

// PutEmployee creates or replaces an employee profile
func (s *FileStore) PutEmployee(ctx context.Context, emp types.Employee, skills []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emp.ID == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Employee id is required", nil)
	}

	dir := s.employeeDir(emp.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("Failed to create employee directory %s", dir), err)
	}

	doc := profileDocument{Employee: emp, Skills: skills}
	return s.writeJSON(filepath.Join(dir, "profile.json"), doc)
}

// PutCatalog replaces the shared question catalog
func (s *FileStore) PutCatalog(ctx context.Context, catalog []types.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeJSON(filepath.Join(s.dataDir, "questions.json"), catalog)
}

// Close implements Store
func (s *FileStore) Close() error {
	return nil
}

// readProfile reads a profile document, mapping a missing directory or
// file to an employee-not-found error. Callers hold the lock.
func (s *FileStore) readProfile(id string) (*profileDocument, error) {
	path := filepath.Join(s.employeeDir(id), "profile.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(errors.ErrCodeEmployeeNotFound,
				fmt.Sprintf("Employee not found: %s", id), nil)
		}
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("Failed to read profile for employee %s", id), err)
	}

	var doc profileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("Failed to parse profile for employee %s", id), err)
	}
	return &doc, nil
}

// writeJSON marshals v and writes it atomically
func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailed,
			"Failed to marshal store document", err)
	}
	return s.writeFile(path, data)
}

// writeFile writes via a temp file and rename so readers never observe
// a partial document
func (s *FileStore) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to write store document", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to replace store document", err)
	}
	return nil
}
