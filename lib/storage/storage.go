// Package storage copies finished recordings to durable remote storage.
package storage

import (
	"context"

	"github.com/onkernel/screencap/lib/sink"
)

// Publisher uploads a finished recording and returns where it was stored.
type Publisher interface {
	Publish(ctx context.Context, a *sink.Artifact) (string, error)
}

// NoopPublisher keeps recordings local.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *sink.Artifact) (string, error) { return "", nil }
