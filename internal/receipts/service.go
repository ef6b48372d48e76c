package receipts

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/async"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
	"github.com/joseph-ayodele/receipts-extractor/internal/parse"
	"github.com/joseph-ayodele/receipts-extractor/internal/pipeline"
	"github.com/joseph-ayodele/receipts-extractor/internal/repository"
	"github.com/joseph-ayodele/receipts-extractor/internal/rules"
)

// Extractor runs one image through the extraction pipeline.
type Extractor interface {
	Process(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// JobTracker persists job status.
type JobTracker interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, id string, fn func(*entity.Job) error) (*entity.Job, error)
	Get(ctx context.Context, id string) (*entity.Job, error)
}

// Exporter renders receipts as a spreadsheet.
type Exporter interface {
	ExportXLSX(ctx context.Context, recs []entity.Receipt) ([]byte, error)
}

// Service handles receipt submission, extraction and lookup.
type Service struct {
	proc     Extractor
	parser   *parse.Parser
	rules    rules.Rules
	store    repository.ReceiptStore
	jobs     JobTracker
	exporter Exporter
	queue    async.Queue
	logger   *slog.Logger
}

type Option func(*Service)

func WithRules(r rules.Rules) Option { return func(s *Service) { s.rules = r } }

func WithParser(p *parse.Parser) Option { return func(s *Service) { s.parser = p } }

func WithJobs(j JobTracker) Option { return func(s *Service) { s.jobs = j } }

func WithExporter(e Exporter) Option { return func(s *Service) { s.exporter = e } }

// NewService creates a new receipt service. A queue must be attached with
// SetQueue before Submit is used.
func NewService(proc Extractor, store repository.ReceiptStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{proc: proc, store: store, logger: logger}
	for _, o := range opts {
		o(s)
	}
	if s.parser == nil {
		s.parser = parse.New(parse.WithLogger(logger))
	}
	return s
}

// SetQueue attaches the queue Submit hands jobs to. The queue in turn calls
// Handle, which is why it is not a constructor argument.
func (s *Service) SetQueue(q async.Queue) { s.queue = q }

// Outcome is the result of one synchronous extraction.
type Outcome struct {
	ID            string         `json:"id"`
	Receipt       entity.Receipt `json:"receipt"`
	Valid         bool           `json:"valid"`
	InvalidReason string         `json:"invalid_reason,omitempty"`
	Escalated     bool           `json:"escalated"`
	Path          []string       `json:"path"`
}

// Extract processes an image, applies the user rules and stores the result
// under a new id. Rule violations are stored too, flagged invalid.
func (s *Service) Extract(ctx context.Context, fileName string, image []byte, lang string) (*Outcome, error) {
	if err := checkUpload(fileName, image); err != nil {
		return nil, err
	}
	return s.extract(ctx, uuid.NewString(), image, lang)
}

func (s *Service) extract(ctx context.Context, id string, image []byte, lang string) (*Outcome, error) {
	res, err := s.proc.Process(ctx, pipeline.Input{Image: image, Language: lang})
	if err != nil {
		return nil, err
	}
	valid, reason := s.rules.Validate(res.Receipt)
	if !valid {
		s.logger.Info("receipts.rules.violated", "id", id, "req_id", common.RequestIDFromContext(ctx), "reason", reason)
	}
	if s.store != nil {
		if err := s.store.Save(ctx, id, res.Receipt, valid, reason); err != nil {
			return nil, err
		}
	}
	out := &Outcome{
		ID:            id,
		Receipt:       res.Receipt,
		Valid:         valid,
		InvalidReason: reason,
		Escalated:     res.Escalated,
	}
	for _, st := range res.Path {
		out.Path = append(out.Path, string(st))
	}
	return out, nil
}

// Submit records a queued job and hands the image to the worker queue.
func (s *Service) Submit(ctx context.Context, fileName string, image []byte, lang string) (*entity.Job, error) {
	if err := checkUpload(fileName, image); err != nil {
		return nil, err
	}
	if s.queue == nil || s.jobs == nil {
		return nil, common.NewAppError("NOT_CONFIGURED", "async submission is not configured", common.ErrInternal)
	}
	ctx, rid := common.EnsureRequestID(ctx)

	job := &entity.Job{
		ID:       uuid.NewString(),
		FileName: filepath.Base(fileName),
		Language: lang,
		Status:   constants.JobStatusQueued,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, common.WrapError(err, "create job")
	}

	task := async.Task{
		JobID:       job.ID,
		FileName:    job.FileName,
		Image:       image,
		Language:    lang,
		SubmittedAt: time.Now(),
		RequestID:   rid,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		_, _ = s.jobs.Update(ctx, job.ID, func(j *entity.Job) error {
			j.Status = constants.JobStatusError
			j.Error = err.Error()
			return nil
		})
		return nil, err
	}
	s.logger.Info("receipts.submit.ok", "job_id", job.ID, "req_id", rid, "file", job.FileName, "bytes", len(image))
	return job, nil
}

// Handle runs a queued task and records its outcome on the job.
func (s *Service) Handle(ctx context.Context, task async.Task) error {
	if _, err := s.jobs.Update(ctx, task.JobID, func(j *entity.Job) error {
		j.Status = constants.JobStatusProcessing
		return nil
	}); err != nil {
		return err
	}

	out, runErr := s.extract(ctx, task.JobID, task.Image, task.Language)

	_, err := s.jobs.Update(context.WithoutCancel(ctx), task.JobID, func(j *entity.Job) error {
		if runErr != nil {
			j.Status = constants.JobStatusError
			j.Error = runErr.Error()
			j.RawResponse = common.RawResponseOf(runErr)
			return nil
		}
		j.Status = constants.JobStatusDone
		j.Error = ""
		j.Receipt = &out.Receipt
		j.Valid = out.Valid
		j.InvalidReason = out.InvalidReason
		j.Escalated = out.Escalated
		return nil
	})
	if runErr != nil {
		return runErr
	}
	return err
}

// Parse runs local extraction and enrichment over already-recognised lines.
func (s *Service) Parse(lines []string) entity.Receipt {
	return pipeline.Enrich(s.parser.Parse(lines))
}

func (s *Service) Job(ctx context.Context, id string) (*entity.Job, error) {
	if err := common.NewValidator().Field("id", id, common.UUID).Err(); err != nil {
		return nil, err
	}
	if s.jobs == nil {
		return nil, common.NewNotFoundError("job " + id + " not found")
	}
	return s.jobs.Get(ctx, id)
}

func (s *Service) Receipt(ctx context.Context, id string) (*entity.StoredReceipt, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListReceipts(ctx context.Context, limit int) ([]*entity.StoredReceipt, error) {
	if limit < 0 {
		return nil, common.NewValidationError("limit must not be negative")
	}
	recs, err := s.store.List(ctx, limit)
	if err != nil {
		s.logger.Error("receipts.list.failed", "error", err)
		return nil, err
	}
	return recs, nil
}

// ExportXLSX renders every stored receipt that passed the user rules.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	if s.exporter == nil {
		return nil, common.NewAppError("NOT_CONFIGURED", "export is not configured", common.ErrInternal)
	}
	stored, err := s.store.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	recs := make([]entity.Receipt, 0, len(stored))
	for _, r := range stored {
		if r.Valid {
			recs = append(recs, r.Receipt)
		}
	}
	return s.exporter.ExportXLSX(ctx, recs)
}

func checkUpload(fileName string, image []byte) error {
	if err := common.NewValidator().Field("file", image, common.Required).Err(); err != nil {
		return err
	}
	if ext := filepath.Ext(fileName); ext != "" {
		if _, ok := constants.FormatForExt(ext); !ok {
			return common.NewAppError("UNSUPPORTED_FORMAT", "unsupported file extension "+strings.ToLower(ext), common.ErrUnsupportedFormat)
		}
	}
	return nil
}
