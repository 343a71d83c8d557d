package assessment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func intPtr(v int) *int { return &v }

func sampleAssessment(userID int64, entryDate string) *Assessment {
	return &Assessment{
		UserID:    userID,
		EntryDate: entryDate,
		PHQ9Score: intPtr(12),
		GAD7Score: intPtr(8),
		PHQ9Data: &ScaleData{
			Answers: map[string]int{"question1": 2, "question2": 1},
			Times:   map[string]float64{"time1": 1200, "time2": 900},
		},
		GAD7Data: &ScaleData{
			Answers:      map[string]int{"question1": 1},
			AIPrediction: &SeverityPrediction{Severity: "Mild anxiety", Confidence: 0.74},
		},
	}
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "assessment-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)

	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_Save(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	a := sampleAssessment(1, "2026-03-01")

	err := store.Save(ctx, a)

	require.NoError(t, err)
	assert.NotZero(t, a.ID, "ID should be assigned")
	assert.False(t, a.CreatedAt.IsZero(), "CreatedAt should be set")
}

func TestSQLiteStore_SaveIsAppendOnly(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	// Same user and date twice; both rows are kept.
	require.NoError(t, store.Save(ctx, sampleAssessment(1, "2026-03-01")))
	require.NoError(t, store.Save(ctx, sampleAssessment(1, "2026-03-01")))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteStore_ListByUser(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleAssessment(1, "2026-02-01")))
	require.NoError(t, store.Save(ctx, sampleAssessment(1, "2026-03-01")))
	require.NoError(t, store.Save(ctx, sampleAssessment(2, "2026-03-01")))

	list, err := store.ListByUser(ctx, 1)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2026-02-01", list[0].EntryDate)
	assert.Equal(t, "2026-03-01", list[1].EntryDate)

	// Round-tripped scale breakdown
	require.NotNil(t, list[0].PHQ9Data)
	assert.Equal(t, 2, list[0].PHQ9Data.Answers["question1"])
	assert.Equal(t, 1200.0, list[0].PHQ9Data.Times["time1"])
	require.NotNil(t, list[0].GAD7Data.AIPrediction)
	assert.Equal(t, "Mild anxiety", list[0].GAD7Data.AIPrediction.Severity)
}

func TestSQLiteStore_Latest(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleAssessment(1, "2026-02-01")))
	require.NoError(t, store.Save(ctx, sampleAssessment(1, "2026-03-01")))

	latest, err := store.Latest(ctx, 1)

	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2026-03-01", latest.EntryDate)
}

func TestSQLiteStore_LatestEmpty(t *testing.T) {
	store := createTestStore(t)

	latest, err := store.Latest(context.Background(), 1)

	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSQLiteStore_PartialScales(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	a := &Assessment{
		UserID:    3,
		EntryDate: "2026-03-01",
		PHQ9Score: intPtr(4),
		PHQ9Data:  &ScaleData{Answers: map[string]int{"question1": 1}},
	}
	require.NoError(t, store.Save(ctx, a))

	latest, err := store.Latest(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, latest.GAD7Score)
	assert.Nil(t, latest.GAD7Data)
	assert.Equal(t, 4, *latest.PHQ9Score)
}

func TestScaleType(t *testing.T) {
	assert.Equal(t, 9, ScalePHQ9.QuestionCount())
	assert.Equal(t, 27, ScalePHQ9.MaxScore())
	assert.Equal(t, 7, ScaleGAD7.QuestionCount())
	assert.Equal(t, 21, ScaleGAD7.MaxScore())
}
