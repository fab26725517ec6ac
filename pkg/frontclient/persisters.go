package frontclient

import (
	"context"

	"github.com/fivetwenty-io/front-go/internal/auth"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

// NewFileTokenPersister stores the OAuth token pair in a YAML file readable
// only by the current user.
func NewFileTokenPersister(path string) (front.TokenPersister, error) {
	persister, err := auth.NewFileTokenPersister(path)
	if err != nil {
		return nil, err
	}

	return persister, nil
}

// DialNATSTokenPersister stores the OAuth token pair in a NATS JetStream
// key-value bucket, creating the bucket if needed. Empty bucket and key use
// "front_tokens" and "oauth".
func DialNATSTokenPersister(ctx context.Context, url, bucket, key string) (front.TokenPersister, error) {
	persister, err := auth.DialNATSKVTokenPersister(ctx, &auth.NATSKVConfig{
		URL:    url,
		Bucket: bucket,
		Key:    key,
	})
	if err != nil {
		return nil, err
	}

	return persister, nil
}
