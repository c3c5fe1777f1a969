package recording

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meetpro/backend/pkg/storage"
)

type fakeObjectStore struct {
	objects []storage.Object
	listErr error
}

func (f *fakeObjectStore) ListObjects(ctx context.Context, bucket string) ([]storage.Object, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.objects, nil
}

func (f *fakeObjectStore) PublicObjectURL(bucket, key string) string {
	return "https://cdn.example.com/" + bucket + "/" + key
}

func TestLatestPicksNewestMatchingArtifact(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeObjectStore{objects: []storage.Object{
		{Key: "2024-01-01-10000000.mp4", LastModified: jan, Size: 100},
		{Key: "2024-02-01-10000000.mp4", LastModified: feb, Size: 200},
		{Key: "2024-03-01-99999999.mp4", LastModified: feb.AddDate(0, 1, 0), Size: 300},
	}}
	r := NewResolver(store, "recordings")

	artifact, err := r.Latest(context.Background(), "10000000")
	if err != nil {
		t.Fatalf("Latest returned %v", err)
	}
	if artifact.Key != "2024-02-01-10000000.mp4" {
		t.Fatalf("key = %q, want the February object", artifact.Key)
	}
	if artifact.URL != "https://cdn.example.com/recordings/2024-02-01-10000000.mp4" {
		t.Fatalf("url = %q", artifact.URL)
	}
	if artifact.Size != 200 {
		t.Fatalf("size = %d, want 200", artifact.Size)
	}
}

func TestLatestIgnoresOtherRooms(t *testing.T) {
	now := time.Now()
	store := &fakeObjectStore{objects: []storage.Object{
		{Key: "2024-02-01-99999999.mp4", LastModified: now},
		// "00000000" is a substring match trap for room "0000000"
		{Key: "2024-02-01-00000000.mp4", LastModified: now},
	}}
	r := NewResolver(store, "recordings")

	_, err := r.Latest(context.Background(), "10000000")
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("error = %v, want ErrArtifactNotFound", err)
	}
}

func TestKeyMatchesRoom(t *testing.T) {
	cases := []struct {
		key  string
		room string
		want bool
	}{
		{"2024-02-01-10000000.mp4", "10000000", true},
		{"2024-02-01T10-30-00-10000000.webm", "10000000", true},
		{"2024-02-01-10000000.mp4", "00000000", false},
		// room id embedded but not as the trailing suffix
		{"10000000-2024-02-01.mp4", "10000000", false},
		// a longer id ending with the room id must not match
		{"2024-02-01-910000000.mp4", "10000000", false},
		{"no-extension-10000000", "10000000", false},
		{"2024-02-01-10000000.mp4", "", false},
	}
	for _, tc := range cases {
		if got := keyMatchesRoom(tc.key, tc.room); got != tc.want {
			t.Errorf("keyMatchesRoom(%q, %q) = %v, want %v", tc.key, tc.room, got, tc.want)
		}
	}
}

func TestLatestPropagatesListFailures(t *testing.T) {
	store := &fakeObjectStore{listErr: errors.New("s3 down")}
	r := NewResolver(store, "recordings")
	if _, err := r.Latest(context.Background(), "10000000"); err == nil || errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("error = %v, want the listing failure", err)
	}
}
