package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"skillpulse/internal/config"
	"skillpulse/internal/errors"
	"skillpulse/internal/types"
)

// RedisStore keeps assessment state in Redis under employee-scoped
// keys. The answer ledger append is guarded by a WATCH transaction so
// concurrent submissions for the same employee never drop records.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *errors.Logger
}

var _ Store = (*RedisStore)(nil)

const (
	keyCatalog     = "skillpulse:catalog"
	keyEmployeeSet = "skillpulse:employees"
)

func keyEmployee(id string) string { return "skillpulse:employee:" + id }
func keyHistory(id string) string  { return "skillpulse:history:" + id }
func keySummary(id string) string  { return "skillpulse:summary:" + id }
func keyPending(id string) string  { return "skillpulse:pending:" + id }

// NewRedisStore creates a Redis-backed store and verifies connectivity
func NewRedisStore(cfg *config.RedisStoreConfig, logger *errors.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeStoreFailed,
			fmt.Sprintf("Failed to connect to Redis at %s", cfg.Addr), err)
	}

	if logger != nil {
		logger.Info("Connected to Redis store", "addr", cfg.Addr, "db", cfg.DB)
	}

	return &RedisStore{client: client, ttl: cfg.TTL, logger: logger}, nil
}

// GetEmployee returns the employee profile
func (s *RedisStore) GetEmployee(ctx context.Context, id string) (*types.Employee, error) {
	doc, err := s.readProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	emp := doc.Employee
	return &emp, nil
}

// ListEmployees returns all known employees sorted by id
func (s *RedisStore) ListEmployees(ctx context.Context) ([]types.Employee, error) {
	ids, err := s.client.SMembers(ctx, keyEmployeeSet).Result()
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to list employees", err)
	}

	employees := make([]types.Employee, 0, len(ids))
	for _, id := range ids {
		doc, err := s.readProfile(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				// Profile expired or was removed behind the index
				continue
			}
			return nil, err
		}
		employees = append(employees, doc.Employee)
	}

	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

// GetSkills returns the employee's declared skills
func (s *RedisStore) GetSkills(ctx context.Context, employeeID string) ([]string, error) {
	doc, err := s.readProfile(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return doc.Skills, nil
}

// GetCatalog returns the shared question catalog
func (s *RedisStore) GetCatalog(ctx context.Context) ([]types.Question, error) {
	data, err := s.client.Get(ctx, keyCatalog).Bytes()
	if err != nil {
		if err == redis.Nil {
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

// GetHistory returns the employee's answer ledger
func (s *RedisStore) GetHistory(ctx context.Context, employeeID string) ([]types.AnswerRecord, error) {
	if _, err := s.readProfile(ctx, employeeID); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, keyHistory(employeeID)).Bytes()
	if err != nil {
		if err == redis.Nil {
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
func (s *RedisStore) AppendAnswer(ctx context.Context, rec types.AnswerRecord) error {
	if _, err := s.readProfile(ctx, rec.EmployeeID); err != nil {
		return err
	}

	key := keyHistory(rec.EmployeeID)

	// Optimistic read-modify-write; retried on contention
	txn := func(tx *redis.Tx) error {
		var history []types.AnswerRecord
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if err := json.Unmarshal(data, &history); err != nil {
				return err
			}
		}

		history = append(history, rec)
		updated, err := json.Marshal(history)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		return err
	}

	for range 3 {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if err != redis.TxFailedErr {
			return errors.NewIOError(errors.ErrCodeStoreFailed,
				"Failed to append answer record", err)
		}
	}
	return errors.NewIOError(errors.ErrCodeStoreFailed,
		"Failed to append answer record after retries", redis.TxFailedErr)
}

// GetSummary returns the evolving performance summary
func (s *RedisStore) GetSummary(ctx context.Context, employeeID string) (string, error) {
	if _, err := s.readProfile(ctx, employeeID); err != nil {
		return "", err
	}

	summary, err := s.client.Get(ctx, keySummary(employeeID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to read performance summary", err)
	}
	return summary, nil
}

// PutSummary overwrites the performance summary
func (s *RedisStore) PutSummary(ctx context.Context, employeeID, summary string) error {
	if _, err := s.readProfile(ctx, employeeID); err != nil {
		return err
	}

	if err := s.client.Set(ctx, keySummary(employeeID), summary, s.ttl).Err(); err != nil {
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to write performance summary", err)
	}
	return nil
}

// GetPendingQuestion returns the generated question waiting for this employee
func (s *RedisStore) GetPendingQuestion(ctx context.Context, employeeID string) (*types.Question, error) {
	if _, err := s.readProfile(ctx, employeeID); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, keyPending(employeeID)).Bytes()
	if err != nil {
		if err == redis.Nil {
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
func (s *RedisStore) PutPendingQuestion(ctx context.Context, employeeID string, q types.Question) error {
	if _, err := s.readProfile(ctx, employeeID); err != nil {
		return err
	}

	data, err := json.Marshal(q)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailed,
			"Failed to marshal pending question", err)
	}
	if err := s.client.Set(ctx, keyPending(employeeID), data, s.ttl).Err(); err != nil {
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to write pending question", err)
	}
	return nil
}

// PutEmployee creates or replaces an employee profile
func (s *RedisStore) PutEmployee(ctx context.Context, emp types.Employee, skills []string) error {
	if emp.ID == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Employee id is required", nil)
	}

	doc := profileDocument{Employee: emp, Skills: skills}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailed,
			"Failed to marshal employee profile", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyEmployee(emp.ID), data, 0) // Profiles never expire
	pipe.SAdd(ctx, keyEmployeeSet, emp.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to write employee profile", err)
	}
	return nil
}

// PutCatalog replaces the shared question catalog
func (s *RedisStore) PutCatalog(ctx context.Context, catalog []types.Question) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreFailed,
			"Failed to marshal question catalog", err)
	}
	if err := s.client.Set(ctx, keyCatalog, data, 0).Err(); err != nil {
		return errors.NewIOError(errors.ErrCodeStoreFailed,
			"Failed to write question catalog", err)
	}
	return nil
}

// Close releases the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) readProfile(ctx context.Context, id string) (*profileDocument, error) {
	data, err := s.client.Get(ctx, keyEmployee(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
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
