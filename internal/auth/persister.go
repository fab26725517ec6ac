package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/front-go/internal/constants"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

// Static errors for err113 compliance.
var (
	ErrTokenPathRequired = errors.New("token file path is required")
	ErrNATSURLRequired   = errors.New("NATS URL is required")
)

// FileTokenPersister stores the token pair as YAML in a private file.
type FileTokenPersister struct {
	path string
}

// NewFileTokenPersister creates a persister writing to path.
func NewFileTokenPersister(path string) (*FileTokenPersister, error) {
	if path == "" {
		return nil, ErrTokenPathRequired
	}

	return &FileTokenPersister{path: filepath.Clean(path)}, nil
}

// LoadTokens reads the stored pair. A missing file yields nil, nil.
func (p *FileTokenPersister) LoadTokens(ctx context.Context) (*front.Tokens, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil //nolint:nilnil // nothing persisted yet
	}

	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var tokens front.Tokens

	err = yaml.Unmarshal(data, &tokens)
	if err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}

	return &tokens, nil
}

// SaveTokens writes pair atomically with owner-only permissions.
func (p *FileTokenPersister) SaveTokens(ctx context.Context, pair front.Tokens) error {
	data, err := yaml.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}

	dir := filepath.Dir(p.path)

	err = os.MkdirAll(dir, constants.TokenDirPerm)
	if err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(constants.TokenFilePerm)
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	err = os.Rename(tmp.Name(), p.path)
	if err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}

	return nil
}

// NATSKVConfig configures a JetStream key-value token store.
type NATSKVConfig struct {
	URL    string
	Bucket string
	Key    string
}

// NATSKVTokenPersister shares the token pair between processes through a
// JetStream key-value bucket, so a refresh in one process is seen by others
// on their next start.
type NATSKVTokenPersister struct {
	kv   jetstream.KeyValue
	key  string
	conn *nats.Conn
}

// NewNATSKVTokenPersister wraps an existing bucket.
func NewNATSKVTokenPersister(kv jetstream.KeyValue, key string) *NATSKVTokenPersister {
	if key == "" {
		key = constants.DefaultNATSKey
	}

	return &NATSKVTokenPersister{kv: kv, key: key}
}

// DialNATSKVTokenPersister connects to NATS and creates the bucket if needed.
func DialNATSKVTokenPersister(ctx context.Context, config *NATSKVConfig) (*NATSKVTokenPersister, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSURLRequired
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	conn, err := nats.Connect(config.URL, nats.Name("front-go token store"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Front OAuth token pair",
		History:     1,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening key-value bucket %s: %w", bucket, err)
	}

	persister := NewNATSKVTokenPersister(kv, config.Key)
	persister.conn = conn

	return persister, nil
}

// LoadTokens reads the stored pair. A missing key yields nil, nil.
func (p *NATSKVTokenPersister) LoadTokens(ctx context.Context) (*front.Tokens, error) {
	entry, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil //nolint:nilnil // nothing persisted yet
	}

	if err != nil {
		return nil, fmt.Errorf("reading token key %s: %w", p.key, err)
	}

	var tokens front.Tokens

	err = json.Unmarshal(entry.Value(), &tokens)
	if err != nil {
		return nil, fmt.Errorf("parsing token key %s: %w", p.key, err)
	}

	return &tokens, nil
}

// SaveTokens stores pair under the configured key.
func (p *NATSKVTokenPersister) SaveTokens(ctx context.Context, pair front.Tokens) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}

	_, err = p.kv.Put(ctx, p.key, data)
	if err != nil {
		return fmt.Errorf("writing token key %s: %w", p.key, err)
	}

	return nil
}

// Close releases the NATS connection opened by DialNATSKVTokenPersister.
func (p *NATSKVTokenPersister) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
