package image

import (
	"context"

	"filevault/internal/queue"
)

// Publisher hands resize tasks to the queue.
type Publisher interface {
	PublishResize(ctx context.Context, task queue.ResizeTask) error
}

// PathResolver maps a file ID to its physical path.
type PathResolver interface {
	ResolvePath(ctx context.Context, id string) (string, error)
}
