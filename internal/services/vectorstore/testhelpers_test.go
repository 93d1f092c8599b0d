package vectorstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// keywordEmbedder maps text onto three axes by keyword and fails on texts
// containing "FAIL".
type keywordEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *keywordEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "FAIL"):
		return nil, errors.New("embedding provider unavailable")
	case strings.Contains(lower, "cholesterol"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "glucose"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "vectors.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func newSQLBackend(t *testing.T) *SQLBackend {
	t.Helper()
	b := NewSQLBackend(newTestDB(t))
	require.NoError(t, b.AutoMigrate())
	return b
}
