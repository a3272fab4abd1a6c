package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/model"
	"github.com/dharsanguruparan/docflow/internal/queue"
	"github.com/dharsanguruparan/docflow/internal/s3storage"
	"github.com/dharsanguruparan/docflow/internal/service"
)

const scanLimit = 1 << 20

type fakeObjects struct {
	info      s3storage.ObjectInfo
	data      []byte
	err       error
	downloads int
}

func (f *fakeObjects) Stat(context.Context, string) (s3storage.ObjectInfo, error) {
	return f.info, f.err
}

func (f *fakeObjects) Download(context.Context, string) ([]byte, error) {
	f.downloads++
	return f.data, nil
}

type confirmCall struct {
	id    string
	size  int64
	pages *int
}

type fakeDocs struct {
	calls []confirmCall
	err   error
}

func (f *fakeDocs) ConfirmUpload(_ context.Context, id string, size int64, pages *int) error {
	f.calls = append(f.calls, confirmCall{id: id, size: size, pages: pages})
	return f.err
}

func confirmTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := queue.NewConfirmTask("doc-1", "documents/emp-1/doc-1/scan.pdf")
	require.NoError(t, err)
	return task
}

func TestHandleConfirmImage(t *testing.T) {
	docs := &fakeDocs{}
	p := NewProcessor(&fakeObjects{info: s3storage.ObjectInfo{Size: 1234, ContentType: "image/png"}}, docs, scanLimit, zap.NewNop())

	require.NoError(t, p.Handler().ProcessTask(context.Background(), confirmTask(t)))
	require.Len(t, docs.calls, 1)
	assert.Equal(t, "doc-1", docs.calls[0].id)
	assert.Equal(t, int64(1234), docs.calls[0].size)
	assert.Nil(t, docs.calls[0].pages)
}

func TestHandleConfirmUnreadablePDF(t *testing.T) {
	docs := &fakeDocs{}
	objects := &fakeObjects{info: s3storage.ObjectInfo{Size: 10, ContentType: "application/pdf"}, data: []byte("%PDF-broken")}
	p := NewProcessor(objects, docs, scanLimit, zap.NewNop())

	require.NoError(t, p.Handler().ProcessTask(context.Background(), confirmTask(t)))
	assert.Equal(t, 1, objects.downloads)
	require.Len(t, docs.calls, 1)
	assert.Nil(t, docs.calls[0].pages)
}

func TestHandleConfirmOversizedPDFSkipsPageCount(t *testing.T) {
	docs := &fakeDocs{}
	objects := &fakeObjects{info: s3storage.ObjectInfo{Size: scanLimit + 1, ContentType: "application/pdf"}}
	p := NewProcessor(objects, docs, scanLimit, zap.NewNop())

	require.NoError(t, p.Handler().ProcessTask(context.Background(), confirmTask(t)))
	assert.Zero(t, objects.downloads)
	require.Len(t, docs.calls, 1)
	assert.Equal(t, int64(scanLimit+1), docs.calls[0].size)
	assert.Nil(t, docs.calls[0].pages)
}

func TestHandleConfirmMissingObjectRetries(t *testing.T) {
	docs := &fakeDocs{}
	objects := &fakeObjects{err: fmt.Errorf("k: %w", s3storage.ErrObjectNotFound)}
	p := NewProcessor(objects, docs, scanLimit, zap.NewNop())

	err := p.Handler().ProcessTask(context.Background(), confirmTask(t))
	require.ErrorIs(t, err, s3storage.ErrObjectNotFound)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, docs.calls)
}

func TestHandleConfirmDeletedDocumentSkipsRetry(t *testing.T) {
	docs := &fakeDocs{err: &model.NotFoundError{Entity: model.EntityDocument, ID: "doc-1"}}
	p := NewProcessor(&fakeObjects{info: s3storage.ObjectInfo{Size: 1, ContentType: "image/jpeg"}}, docs, scanLimit, zap.NewNop())

	err := p.Handler().ProcessTask(context.Background(), confirmTask(t))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleNotification(t *testing.T) {
	p := NewProcessor(&fakeObjects{}, &fakeDocs{}, scanLimit, zap.NewNop())
	task, err := queue.NewNotificationTask(service.Notification{EmployeeID: "emp-1", DocumentID: "doc-1", Message: "ok"})
	require.NoError(t, err)
	assert.NoError(t, p.Handler().ProcessTask(context.Background(), task))

	bad := asynq.NewTask(queue.NotificationTask, []byte("{"))
	assert.ErrorIs(t, p.Handler().ProcessTask(context.Background(), bad), asynq.SkipRetry)
}
