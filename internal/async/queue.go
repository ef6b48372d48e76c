package async

import (
	"context"
	"time"
)

// Task is one queued extraction. JobID refers to the job record tracking it.
type Task struct {
	JobID       string
	FileName    string
	Image       []byte
	Language    string
	SubmittedAt time.Time
	RequestID   string
}

type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Shutdown(ctx context.Context)
}

// Handler runs a dequeued task to completion.
type Handler interface {
	Handle(ctx context.Context, task Task) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, task Task) error

func (f HandlerFunc) Handle(ctx context.Context, task Task) error { return f(ctx, task) }
