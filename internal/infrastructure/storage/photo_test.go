package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbnailKey(t *testing.T) {
	tests := []struct {
		original string
		size     ThumbnailSize
		want     string
	}{
		{"photos/abc.png", ThumbnailSize{300, 300}, "photos/abc_300x300.jpg"},
		{"photos/abc.jpeg", ThumbnailSize{150, 150}, "photos/abc_150x150.jpg"},
		{"photos/noext", ThumbnailSize{500, 500}, "photos/noext_500x500.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ThumbnailKey(tt.original, tt.size))
		})
	}
}

func TestGravatarURL(t *testing.T) {
	// md5("foo@example.com")
	const hash = "b48def645758b95537d4424c84d1a9ff"

	u := GravatarURL("  Foo@Example.com ", 150, "identicon")
	assert.Equal(t, "https://www.gravatar.com/avatar/"+hash+"?d=identicon&s=150", u)

	u = GravatarURL("foo@example.com", 300, "")
	assert.Equal(t, "https://www.gravatar.com/avatar/"+hash+"?s=300", u)
}

func TestPhotoURLResolver(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryObjectStorage("https://cdn.example.com/")

	t.Run("stored photo resolves thumbnails", func(t *testing.T) {
		r := NewPhotoURLResolver(store, time.Minute, "identicon")
		urls, err := r.Resolve(ctx, "photos/abc.png", "foo@example.com")
		require.NoError(t, err)
		require.Len(t, urls, 3)
		assert.True(t, strings.HasPrefix(urls["150x150"], "https://cdn.example.com/photos/abc_150x150.jpg?expires="))
		assert.True(t, strings.HasPrefix(urls["300x300"], "https://cdn.example.com/photos/abc_300x300.jpg?expires="))
		assert.True(t, strings.HasPrefix(urls["500x500"], "https://cdn.example.com/photos/abc_500x500.jpg?expires="))
	})

	t.Run("no photo falls back to gravatar", func(t *testing.T) {
		r := NewPhotoURLResolver(store, time.Minute, "mm")
		urls, err := r.Resolve(ctx, "", "foo@example.com")
		require.NoError(t, err)
		assert.Contains(t, urls["300x300"], "gravatar.com/avatar/")
		assert.Contains(t, urls["300x300"], "s=300")
		assert.Contains(t, urls["500x500"], "d=mm")
	})

	t.Run("nil store falls back to gravatar", func(t *testing.T) {
		r := NewPhotoURLResolver(nil, time.Minute, "")
		urls, err := r.Resolve(ctx, "photos/abc.png", "foo@example.com")
		require.NoError(t, err)
		assert.Contains(t, urls["150x150"], "gravatar.com")
	})

	t.Run("store errors are returned", func(t *testing.T) {
		r := NewPhotoURLResolver(&failingStore{}, time.Minute, "")
		_, err := r.Resolve(ctx, "photos/abc.png", "foo@example.com")
		require.Error(t, err)
	})
}

type failingStore struct{ MemoryObjectStorage }

func (*failingStore) URL(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("presign failed")
}
