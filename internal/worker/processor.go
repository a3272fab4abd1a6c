// Package worker runs the asynq handlers: notification delivery and upload
// confirmation.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/model"
	pdfutil "github.com/dharsanguruparan/docflow/internal/pdf"
	"github.com/dharsanguruparan/docflow/internal/queue"
	"github.com/dharsanguruparan/docflow/internal/s3storage"
)

// ObjectReader reads uploaded files back from object storage.
type ObjectReader interface {
	Stat(ctx context.Context, key string) (s3storage.ObjectInfo, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// UploadRecorder stores the confirmed file facts on the document.
type UploadRecorder interface {
	ConfirmUpload(ctx context.Context, id string, size int64, pages *int) error
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	objects      ObjectReader
	docs         UploadRecorder
	maxScanBytes int64
	log          *zap.Logger
}

// NewProcessor constructs a worker processor. PDFs larger than maxScanBytes
// are confirmed without a page count; a non-positive value falls back to the
// default intake size limit.
func NewProcessor(objects ObjectReader, docs UploadRecorder, maxScanBytes int64, log *zap.Logger) *Processor {
	if maxScanBytes <= 0 {
		maxScanBytes = model.DefaultIntakeSettings().MaxFileBytes
	}
	return &Processor{
		objects:      objects,
		docs:         docs,
		maxScanBytes: maxScanBytes,
		log:          log.With(zap.String("component", "worker")),
	}
}

// Handler registers the task handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.NotificationTask, p.handleNotification)
	mux.HandleFunc(queue.ConfirmDocumentTask, p.handleConfirm)
	return mux
}

// Delivery to an external channel is not part of this system; the message is
// logged for the operator.
func (p *Processor) handleNotification(_ context.Context, task *asynq.Task) error {
	var payload queue.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}
	p.log.Info("notification",
		zap.String("employee_id", payload.EmployeeID),
		zap.String("document_id", payload.DocumentID),
		zap.String("message", payload.Message),
	)
	return nil
}

// A missing object is returned as an error so asynq retries until the
// client's upload lands or retries run out.
func (p *Processor) handleConfirm(ctx context.Context, task *asynq.Task) error {
	var payload queue.ConfirmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}
	log := p.log.With(zap.String("document_id", payload.DocumentID), zap.String("object_key", payload.ObjectKey))

	info, err := p.objects.Stat(ctx, payload.ObjectKey)
	if err != nil {
		log.Warn("upload not confirmed yet", zap.Error(err))
		return err
	}

	var pages *int
	switch {
	case !pdfutil.IsPDF(info.ContentType, nil):
	case info.Size > p.maxScanBytes:
		log.Warn("file too large for page count", zap.Int64("size", info.Size), zap.Int64("limit", p.maxScanBytes))
	default:
		pages = p.countPages(ctx, log, payload.ObjectKey)
	}

	err = p.docs.ConfirmUpload(ctx, payload.DocumentID, info.Size, pages)
	if errors.Is(err, model.ErrNotFound) {
		log.Warn("document gone before confirmation")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		log.Error("confirm upload failed", zap.Error(err))
		return err
	}
	log.Info("upload confirmed", zap.Int64("size", info.Size))
	return nil
}

// countPages returns nil when the file cannot be parsed; a bad PDF still
// counts as uploaded.
func (p *Processor) countPages(ctx context.Context, log *zap.Logger, key string) *int {
	data, err := p.objects.Download(ctx, key)
	if err != nil {
		log.Warn("download for page count failed", zap.Error(err))
		return nil
	}
	n, err := pdfutil.PageCount(data)
	if err != nil {
		log.Warn("page count failed", zap.Error(err))
		return nil
	}
	return &n
}
