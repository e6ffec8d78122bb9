package services

import (
	"context"
	"io"
)

// SideEffectDispatcher is the outbox for best-effort side effects: outbound
// email and remote image processing/cleanup. Implementations enqueue onto a
// durable queue; the services log and continue when enqueueing fails, so a
// queue outage never rolls back a committed write.
type SideEffectDispatcher interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
	EnqueueImageProcess(ctx context.Context, key string) error
	EnqueueImageCleanup(ctx context.Context, keys []string) error
}

// ImageUpload is a single incoming image file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
