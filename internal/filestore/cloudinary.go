package filestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const avatarFolder = "avatars"

// CloudinaryStore implements Store on top of Cloudinary.
type CloudinaryStore struct {
	cld  *cloudinary.Cloudinary
	http *http.Client
}

// NewCloudinaryStore creates a Cloudinary-backed file store.
func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, http: http.DefaultClient}, nil
}

// Store uploads the bytes under a deterministic per-owner public ID so a
// re-upload replaces the previous file. The returned ref is the secure URL.
func (s *CloudinaryStore) Store(ctx context.Context, ownerKey string, data []byte, contentType string) (string, error) {
	overwrite := true
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:    avatarFolder,
		PublicID:  ownerKey,
		Overwrite: &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	return res.SecureURL, nil
}

// Fetch downloads the file behind a ref.
func (s *CloudinaryStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching file", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Delete destroys the file behind a ref. Unknown refs are ignored.
func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	publicID, ok := publicIDFromURL(ref)
	if !ok {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	return nil
}

// publicIDFromURL recovers the public ID from a Cloudinary delivery URL,
// e.g. .../upload/v12345/avatars/<owner>.png -> avatars/<owner>.
func publicIDFromURL(ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	for i, p := range parts {
		if p == avatarFolder && i < len(parts)-1 {
			name := strings.Join(parts[i:], "/")
			return strings.TrimSuffix(name, path.Ext(name)), true
		}
	}
	return "", false
}
