package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/docflow/internal/service"
)

type recordingQueue struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

var (
	_ service.Notifier        = (*Client)(nil)
	_ service.UploadConfirmer = (*Client)(nil)
)

func TestClientNotify(t *testing.T) {
	q := &recordingQueue{}
	c := &Client{q: q}
	require.NoError(t, c.Notify(context.Background(), service.Notification{
		EmployeeID: "emp-1", DocumentID: "doc-1", Message: "approved",
	}))

	require.Len(t, q.tasks, 1)
	assert.Equal(t, NotificationTask, q.tasks[0].Type())
	var p NotificationPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &p))
	assert.Equal(t, NotificationPayload{EmployeeID: "emp-1", DocumentID: "doc-1", Message: "approved"}, p)
}

func TestClientEnqueueConfirm(t *testing.T) {
	q := &recordingQueue{}
	c := &Client{q: q}
	require.NoError(t, c.EnqueueConfirm(context.Background(), "doc-1", "documents/emp-1/doc-1/scan.pdf"))

	require.Len(t, q.tasks, 1)
	assert.Equal(t, ConfirmDocumentTask, q.tasks[0].Type())
	assert.JSONEq(t, `{"document_id":"doc-1","object_key":"documents/emp-1/doc-1/scan.pdf"}`, string(q.tasks[0].Payload()))
}

func TestClientEnqueueError(t *testing.T) {
	q := &recordingQueue{err: errors.New("redis down")}
	c := &Client{q: q}
	err := c.EnqueueConfirm(context.Background(), "doc-1", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}
