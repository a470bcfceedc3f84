// pkg/artifact/store_test.go
package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rajansavani/csv-cleaner/pkg/dataset"
	"github.com/rajansavani/csv-cleaner/pkg/plan"
	"github.com/rajansavani/csv-cleaner/pkg/report"
)

func TestFSStore_CreatesLayout(t *testing.T) {
	base := t.TempDir()
	_, err := NewFSStore(base, zap.NewNop())
	require.NoError(t, err)

	for _, sub := range []string{"cleaned", "plans", "reports"} {
		info, err := os.Stat(filepath.Join(base, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFSStore_SaveArtifacts(t *testing.T) {
	base := t.TempDir()
	store, err := NewFSStore(base, zap.NewNop())
	require.NoError(t, err)

	ds, err := dataset.New([]dataset.Column{
		{Name: "v", Type: dataset.TypeInt, Cells: []any{int64(1), int64(2)}},
	})
	require.NoError(t, err)

	const jobID = "job-abc"
	require.NoError(t, store.SaveDataset(jobID, ds))
	require.NoError(t, store.SavePlan(jobID, []byte(`{"version":1,"steps":[]}`)))
	require.NoError(t, store.SaveReport(jobID, report.Build(jobID, plan.Default(), nil, nil, nil)))

	cleaned, err := os.ReadFile(store.CleanedPath(jobID))
	require.NoError(t, err)
	assert.Equal(t, "v\n1\n2\n", string(cleaned))

	// The plan is stored byte for byte as it was decoded.
	stored, err := os.ReadFile(store.PlanPath(jobID))
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"steps":[]}`, string(stored))

	reportBytes, err := os.ReadFile(store.ReportPath(jobID))
	require.NoError(t, err)
	assert.Contains(t, string(reportBytes), `"job_id": "job-abc"`)
}

func TestFSStore_SaveDatasetError(t *testing.T) {
	base := t.TempDir()
	store, err := NewFSStore(base, zap.NewNop())
	require.NoError(t, err)

	// Remove the target directory so the write fails.
	require.NoError(t, os.RemoveAll(filepath.Join(base, "cleaned")))

	ds, err := dataset.New([]dataset.Column{
		{Name: "v", Type: dataset.TypeInt, Cells: []any{int64(1)}},
	})
	require.NoError(t, err)

	err = store.SaveDataset("job-x", ds)
	require.Error(t, err)

	storeErr, ok := err.(*StoreError)
	require.True(t, ok)
	assert.Equal(t, "dataset", storeErr.Artifact)
	assert.Equal(t, "job-x", storeErr.JobID)
}
