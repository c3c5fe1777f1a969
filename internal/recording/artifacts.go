package recording

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/meetpro/backend/pkg/storage"
)

// ErrArtifactNotFound means no stored recording matches the room. Callers
// treat it as "not yet available" rather than a failure: the egress pipeline
// writes the object some time after the stop completes.
var ErrArtifactNotFound = errors.New("no recording artifact for room")

// Artifact is a finished recording file in object storage.
type Artifact struct {
	Key          string    `json:"fileName"`
	URL          string    `json:"url"`
	LastModified time.Time `json:"lastModified"`
	Size         int64     `json:"size"`
}

// ObjectStore is the storage surface artifact resolution needs.
type ObjectStore interface {
	ListObjects(ctx context.Context, bucket string) ([]storage.Object, error)
	PublicObjectURL(bucket, key string) string
}

// Resolver locates the latest recording artifact for a room. Keys carry a
// leading timestamp and end with "-{roomName}.{ext}", so the listing cannot
// be narrowed by prefix; the room match is on the suffix before the
// extension.
type Resolver struct {
	store  ObjectStore
	bucket string
}

// NewResolver creates an artifact resolver over one bucket.
func NewResolver(store ObjectStore, bucket string) *Resolver {
	return &Resolver{store: store, bucket: bucket}
}

// Latest returns the room's artifact with the greatest last-modified
// timestamp, or ErrArtifactNotFound.
func (r *Resolver) Latest(ctx context.Context, room string) (*Artifact, error) {
	objects, err := r.store.ListObjects(ctx, r.bucket)
	if err != nil {
		return nil, err
	}
	var best *storage.Object
	for i := range objects {
		if !keyMatchesRoom(objects[i].Key, room) {
			continue
		}
		if best == nil || objects[i].LastModified.After(best.LastModified) {
			best = &objects[i]
		}
	}
	if best == nil {
		return nil, ErrArtifactNotFound
	}
	return &Artifact{
		Key:          best.Key,
		URL:          r.store.PublicObjectURL(r.bucket, best.Key),
		LastModified: best.LastModified,
		Size:         best.Size,
	}, nil
}

// Bucket returns the bucket the resolver reads from.
func (r *Resolver) Bucket() string { return r.bucket }

func keyMatchesRoom(key, room string) bool {
	ext := path.Ext(key)
	if ext == "" {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(key, ext), "-"+room)
}
