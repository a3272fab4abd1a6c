// Package queue defines the background tasks and the asynq client the server
// uses to schedule them.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/docflow/internal/config"
	"github.com/dharsanguruparan/docflow/internal/service"
)

const (
	// NotificationTask delivers a review outcome to an employee.
	NotificationTask = "notification:send"
	// ConfirmDocumentTask checks that a presigned upload reached the bucket.
	ConfirmDocumentTask = "document:confirm"
)

// NotificationPayload is the body of a NotificationTask.
type NotificationPayload struct {
	EmployeeID string `json:"employee_id"`
	DocumentID string `json:"document_id"`
	Message    string `json:"message"`
}

// ConfirmPayload is the body of a ConfirmDocumentTask.
type ConfirmPayload struct {
	DocumentID string `json:"document_id"`
	ObjectKey  string `json:"object_key"`
}

// RedisOpt converts the redis configuration into asynq connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// NewNotificationTask encodes n as a task.
func NewNotificationTask(n service.Notification) (*asynq.Task, error) {
	data, err := json.Marshal(NotificationPayload{EmployeeID: n.EmployeeID, DocumentID: n.DocumentID, Message: n.Message})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(NotificationTask, data, asynq.MaxRetry(3)), nil
}

// NewConfirmTask encodes a confirmation check for documentID. The first
// attempt waits for the client to finish its upload.
func NewConfirmTask(documentID, objectKey string) (*asynq.Task, error) {
	data, err := json.Marshal(ConfirmPayload{DocumentID: documentID, ObjectKey: objectKey})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(ConfirmDocumentTask, data,
		asynq.MaxRetry(5),
		asynq.ProcessIn(30*time.Second),
		asynq.Timeout(2*time.Minute),
	), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client schedules tasks. It satisfies service.Notifier and
// service.UploadConfirmer.
type Client struct {
	q enqueuer
}

// NewClient wraps an asynq client.
func NewClient(c *asynq.Client) *Client {
	return &Client{q: c}
}

// Notify enqueues a notification.
func (c *Client) Notify(ctx context.Context, n service.Notification) error {
	task, err := NewNotificationTask(n)
	if err != nil {
		return err
	}
	if _, err := c.q.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// EnqueueConfirm enqueues an upload confirmation check.
func (c *Client) EnqueueConfirm(ctx context.Context, documentID, objectKey string) error {
	task, err := NewConfirmTask(documentID, objectKey)
	if err != nil {
		return err
	}
	if _, err := c.q.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue confirm task: %w", err)
	}
	return nil
}
