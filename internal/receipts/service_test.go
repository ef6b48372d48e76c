package receipts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/async"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
	"github.com/joseph-ayodele/receipts-extractor/internal/pipeline"
	"github.com/joseph-ayodele/receipts-extractor/internal/repository"
	"github.com/joseph-ayodele/receipts-extractor/internal/rules"
)

func ptr[T any](v T) *T { return &v }

type extractorFunc func(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)

func (f extractorFunc) Process(ctx context.Context, in pipeline.Input) (*pipeline.Result, error) {
	return f(ctx, in)
}

type memStore struct {
	mu   sync.Mutex
	recs map[string]*entity.StoredReceipt
}

func newMemStore() *memStore { return &memStore{recs: map[string]*entity.StoredReceipt{}} }

func (m *memStore) Save(_ context.Context, id string, r entity.Receipt, valid bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[id] = &entity.StoredReceipt{ID: id, Receipt: r, Valid: valid, InvalidReason: reason, CreatedAt: time.Now()}
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*entity.StoredReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return nil, common.NewNotFoundError("receipt " + id + " not found")
	}
	return r, nil
}

func (m *memStore) List(context.Context, int) ([]*entity.StoredReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.StoredReceipt, 0, len(m.recs))
	for _, r := range m.recs {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

type captureExporter struct{ got []entity.Receipt }

func (c *captureExporter) ExportXLSX(_ context.Context, recs []entity.Receipt) ([]byte, error) {
	c.got = recs
	return []byte("xlsx"), nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func fixedResult(total float64) extractorFunc {
	return func(context.Context, pipeline.Input) (*pipeline.Result, error) {
		return &pipeline.Result{
			Receipt: entity.Receipt{TotalAmount: ptr(total)},
			Path:    []pipeline.Stage{pipeline.StageOfflineOCR, pipeline.StageLocalExtract, pipeline.StageCheck, pipeline.StageAccept},
		}, nil
	}
}

func TestExtract_AppliesRulesAndStores(t *testing.T) {
	store := newMemStore()
	r, err := rules.Parse("MIN_AMOUNT_LIMIT=100")
	require.NoError(t, err)
	svc := NewService(fixedResult(40), store, discard(), WithRules(r))

	out, err := svc.Extract(context.Background(), "fis.jpg", []byte{1}, "")
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.InvalidReason)
	assert.Equal(t, []string{"offline_ocr", "local_extract", "check", "accept"}, out.Path)

	stored, err := svc.Receipt(context.Background(), out.ID)
	require.NoError(t, err)
	assert.False(t, stored.Valid)
}

func TestExtract_RejectsBadUploads(t *testing.T) {
	svc := NewService(fixedResult(1), newMemStore(), discard())

	_, err := svc.Extract(context.Background(), "fis.jpg", nil, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Extract(context.Background(), "notes.docx", []byte{1}, "")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestSubmitAndHandle(t *testing.T) {
	jobs, err := repository.OpenJobStore(filepath.Join(t.TempDir(), "jobs.bolt"))
	require.NoError(t, err)
	defer jobs.Close()

	var langSeen string
	proc := extractorFunc(func(_ context.Context, in pipeline.Input) (*pipeline.Result, error) {
		langSeen = in.Language
		return &pipeline.Result{Receipt: entity.Receipt{TotalAmount: ptr(275.0)}, Escalated: true}, nil
	})
	store := newMemStore()
	svc := NewService(proc, store, discard(), WithJobs(jobs))
	q := async.NewProcessorQueue(svc, discard(), async.WithWorkers(1))
	svc.SetQueue(q)

	job, err := svc.Submit(context.Background(), "inbox/fis.png", []byte{1, 2}, "tur")
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusQueued, job.Status)
	assert.Equal(t, "fis.png", job.FileName)

	q.Shutdown(context.Background())

	got, err := svc.Job(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDone, got.Status)
	assert.True(t, got.Escalated)
	assert.True(t, got.Valid)
	assert.InDelta(t, 275, *got.Receipt.TotalAmount, 1e-9)
	assert.Equal(t, "tur", langSeen)

	_, err = store.Get(context.Background(), job.ID)
	assert.NoError(t, err)
}

func TestHandle_RecordsStageError(t *testing.T) {
	jobs, err := repository.OpenJobStore(filepath.Join(t.TempDir(), "jobs.bolt"))
	require.NoError(t, err)
	defer jobs.Close()

	proc := extractorFunc(func(context.Context, pipeline.Input) (*pipeline.Result, error) {
		return nil, &common.StageError{Stage: "llm_extract", Raw: "not json", Err: common.ErrMalformedResponse}
	})
	svc := NewService(proc, newMemStore(), discard(), WithJobs(jobs))
	require.NoError(t, jobs.Create(context.Background(), &entity.Job{ID: "j1", Status: constants.JobStatusQueued}))

	err = svc.Handle(context.Background(), async.Task{JobID: "j1", Image: []byte{1}})
	assert.ErrorIs(t, err, common.ErrMalformedResponse)

	got, err := jobs.Get(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusError, got.Status)
	assert.Equal(t, "not json", got.RawResponse)
	assert.Contains(t, got.Error, "llm_extract")
}

func TestSubmit_QueueFullMarksJobFailed(t *testing.T) {
	jobs, err := repository.OpenJobStore(filepath.Join(t.TempDir(), "jobs.bolt"))
	require.NoError(t, err)
	defer jobs.Close()

	svc := NewService(fixedResult(1), newMemStore(), discard(), WithJobs(jobs))
	svc.SetQueue(fullQueue{})

	_, err = svc.Submit(context.Background(), "fis.jpg", []byte{1}, "")
	assert.ErrorIs(t, err, common.ErrQueueFull)
}

type fullQueue struct{}

func (fullQueue) Enqueue(context.Context, async.Task) error {
	return common.NewAppError("QUEUE_FULL", "full", common.ErrQueueFull)
}
func (fullQueue) Shutdown(context.Context) {}

func TestExportXLSX_OnlyValid(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "ok", entity.Receipt{TotalAmount: ptr(10.0)}, true, ""))
	require.NoError(t, store.Save(ctx, "bad", entity.Receipt{TotalAmount: ptr(5000.0)}, false, "limit"))

	exp := &captureExporter{}
	svc := NewService(fixedResult(1), store, discard(), WithExporter(exp))
	data, err := svc.ExportXLSX(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), data)
	require.Len(t, exp.got, 1)
	assert.InDelta(t, 10, *exp.got[0].TotalAmount, 1e-9)
}

func TestParse_LocalOnly(t *testing.T) {
	svc := NewService(extractorFunc(func(context.Context, pipeline.Input) (*pipeline.Result, error) {
		return nil, errors.New("must not be called")
	}), newMemStore(), discard())

	rec := svc.Parse([]string{"TOPLAM *110,00", "TOPKDV *10,00"})
	require.NotNil(t, rec.TotalAmount)
	assert.InDelta(t, 110, *rec.TotalAmount, 1e-9)
}

func TestJob_RejectsMalformedID(t *testing.T) {
	svc := NewService(fixedResult(1), newMemStore(), discard())
	_, err := svc.Job(context.Background(), "../etc")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
