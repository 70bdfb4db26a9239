// Package asset uploads binary media (images, CV documents) to an external
// asset host and returns the public URL the content store should reference.
//
// Bytes are forwarded unchanged. There is no type or size validation and
// no retry: one attempt, and any failure is an apperror.ErrUploadFailed.
package asset

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
)

// Kind is the resource-type hint passed to the host.
type Kind string

const (
	KindImage Kind = "image"
	KindRaw   Kind = "raw"
	KindVideo Kind = "video"
	KindAuto  Kind = "auto"
)

// ParseKind maps a form value to a Kind. Empty or unknown values mean auto,
// which lets the host detect the type itself.
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindImage, KindRaw, KindVideo:
		return k
	default:
		return KindAuto
	}
}

// FileInfo describes the file being uploaded, as seen by the HTTP layer.
type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
}

// Result is the host's description of the stored asset. The JSON names
// follow Cloudinary's upload response so the admin page can read either
// provider the same way.
type Result struct {
	SecureURL        string `json:"secure_url"`
	URL              string `json:"url,omitempty"`
	PublicID         string `json:"public_id"`
	Format           string `json:"format"`
	ResourceType     string `json:"resource_type"`
	Bytes            int64  `json:"bytes"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`
}

// Uploader stores one file at the asset host.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, info FileInfo, kind Kind) (*Result, error)
}

// Disabled is the Uploader used when no asset host is configured.
type Disabled struct{}

var _ Uploader = Disabled{}

func (Disabled) Upload(context.Context, io.Reader, FileInfo, Kind) (*Result, error) {
	return nil, apperror.UploadFailed("Upload failed", errNoProvider)
}

var errNoProvider = errors.New("asset: no upload provider configured")
