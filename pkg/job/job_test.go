package job

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epistemix-com/epx-go/internal/epxconfig"
	"github.com/epistemix-com/epx-go/pkg/cloud"
	"github.com/epistemix-com/epx-go/pkg/run"
	"github.com/epistemix-com/epx-go/pkg/status"
	"github.com/epistemix-com/epx-go/pkg/sweep"
	"github.com/epistemix-com/epx-go/pkg/synthpop"
)

func testSweep() sweep.ModelConfigSweep {
	seed := uint64(7)
	return sweep.ModelConfigSweep{
		Program:     "main.fred",
		Pop:         []synthpop.SynthPop{synthpop.New("US_2010.v5", []string{"Loving_County_TX"})},
		StartDate:   []string{"2024-01-01"},
		EndDate:     []string{"2024-01-31", "2024-02-29"},
		NReplicates: 1,
		Seed:        seed,
	}
}

func testConfig(t *testing.T) epxconfig.Config {
	return epxconfig.Config{CacheDir: filepath.Join(t.TempDir(), "cache")}
}

func TestNewExpandsOneRunPerConfiguration(t *testing.T) {
	cfg := testConfig(t)
	j, err := New(cfg, testSweep(), "11.2.0")
	require.NoError(t, err)
	assert.Len(t, j.Runs, 2)
	assert.NotEmpty(t, j.Key)
}

func TestFromKeyReloadsPersistedJob(t *testing.T) {
	cfg := testConfig(t)
	j, err := New(cfg, testSweep(), "11.2.0", WithKey("my-job"))
	require.NoError(t, err)
	require.NoError(t, j.Execute(context.Background(), func(r *run.Run) cloud.Strategy {
		return fakeStrategy{runID: 1}
	}, 4))

	reloaded, err := FromKey(cfg, "my-job")
	require.NoError(t, err)
	assert.Len(t, reloaded.Runs, len(j.Runs))
	assert.Equal(t, j.Runs[0].OutputDir, reloaded.Runs[0].OutputDir)
}

func TestFromKeyMissingReturnsErrJobNotFound(t *testing.T) {
	cfg := testConfig(t)
	_, err := FromKey(cfg, "does-not-exist")
	var notFound *ErrJobNotFound
	require.ErrorAs(t, err, &notFound)
}

type fakeStrategy struct{ runID int }

func (f fakeStrategy) Execute(ctx context.Context) (int, error) { return f.runID, nil }

func TestExecuteSubmitsEveryRunConcurrently(t *testing.T) {
	cfg := testConfig(t)
	j, err := New(cfg, testSweep(), "11.2.0", WithKey("exec-job"))
	require.NoError(t, err)

	nextID := 100
	err = j.Execute(context.Background(), func(r *run.Run) cloud.Strategy {
		nextID++
		return fakeStrategy{runID: nextID}
	}, 4)
	require.NoError(t, err)

	for _, r := range j.Runs {
		require.NotNil(t, r.RunID)
	}
}

func TestStatusAggregatesNotStarted(t *testing.T) {
	cfg := testConfig(t)
	j, err := New(cfg, testSweep(), "11.2.0", WithKey("agg-job"))
	require.NoError(t, err)

	st, err := j.Status()
	require.NoError(t, err)
	assert.Equal(t, status.NotStarted, st.Name())
}

func TestRunMetaReturnsOneRowPerRun(t *testing.T) {
	cfg := testConfig(t)
	j, err := New(cfg, testSweep(), "11.2.0", WithKey("meta-job"))
	require.NoError(t, err)

	rows, err := j.RunMeta()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "main.fred", rows[0].Program)
	assert.Equal(t, uint64(7), rows[0].Seed)
}

func TestDeleteRemovesJobCache(t *testing.T) {
	cfg := testConfig(t)
	j, err := New(cfg, testSweep(), "11.2.0", WithKey("del-job"))
	require.NoError(t, err)

	require.NoError(t, j.Delete(false, nil))
	_, err = FromKey(cfg, "del-job")
	var notFound *ErrJobNotFound
	require.ErrorAs(t, err, &notFound)
}
