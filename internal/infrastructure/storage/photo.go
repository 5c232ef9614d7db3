package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// ThumbnailSize is the bounding box of a square photo variant
type ThumbnailSize struct {
	Width  int
	Height int
}

// String renders the size as "WxH", the key used in photo documents
func (s ThumbnailSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

var (
	// ThumbnailSizes are the variants generated for every uploaded photo
	ThumbnailSizes = []ThumbnailSize{{150, 150}, {300, 300}, {500, 500}}
	// DefaultThumbnail is the variant used as the photo value
	DefaultThumbnail = ThumbnailSize{300, 300}
)

const gravatarBaseURL = "https://www.gravatar.com/avatar/"

// ThumbnailKey derives the storage key of a variant from the original key:
// "photos/abc.png" becomes "photos/abc_300x300.jpg".
func ThumbnailKey(original string, size ThumbnailSize) string {
	base := strings.TrimSuffix(original, path.Ext(original))
	return base + "_" + size.String() + ".jpg"
}

// GravatarURL returns the avatar URL for email at the given pixel size
func GravatarURL(email string, size int, fallback string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	q := url.Values{}
	q.Set("s", strconv.Itoa(size))
	if fallback != "" {
		q.Set("d", fallback)
	}
	return gravatarBaseURL + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}

// PhotoURLResolver maps a profile photo to the URLs of its variants
type PhotoURLResolver struct {
	store           ObjectStore
	expiry          time.Duration
	gravatarDefault string
}

// NewPhotoURLResolver creates a resolver. A nil store always falls back to Gravatar.
func NewPhotoURLResolver(store ObjectStore, expiry time.Duration, gravatarDefault string) *PhotoURLResolver {
	return &PhotoURLResolver{store: store, expiry: expiry, gravatarDefault: gravatarDefault}
}

// Resolve returns one URL per ThumbnailSize keyed by its String form.
// Profiles without a stored photo get Gravatar URLs for their email.
func (r *PhotoURLResolver) Resolve(ctx context.Context, photoKey, email string) (map[string]string, error) {
	urls := make(map[string]string, len(ThumbnailSizes))
	for _, size := range ThumbnailSizes {
		if photoKey == "" || r.store == nil {
			urls[size.String()] = GravatarURL(email, size.Width, r.gravatarDefault)
			continue
		}
		u, err := r.store.URL(ctx, ThumbnailKey(photoKey, size), r.expiry)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s photo: %w", size, err)
		}
		urls[size.String()] = u
	}
	return urls, nil
}
