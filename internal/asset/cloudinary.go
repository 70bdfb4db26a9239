package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/sakif/portfolio/internal/apperror"
)

// DefaultFolder is where uploads land when no folder is configured.
const DefaultFolder = "portfolio"

// cloudinaryAPI is the slice of the SDK we call. *uploader.API satisfies it;
// tests substitute a fake.
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Cloudinary uploads through the Cloudinary upload API.
type Cloudinary struct {
	api    cloudinaryAPI
	folder string
	logger *slog.Logger
}

var _ Uploader = (*Cloudinary)(nil)

// NewCloudinary builds an uploader from a CLOUDINARY_URL of the form
// cloudinary://<api_key>:<api_secret>@<cloud_name>.
func NewCloudinary(cloudinaryURL, folder string, logger *slog.Logger) (*Cloudinary, error) {
	if cloudinaryURL == "" {
		return nil, errors.New("asset: cloudinary URL is empty")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("asset: initialising cloudinary: %w", err)
	}
	return newCloudinary(&cld.Upload, folder, logger), nil
}

func newCloudinary(api cloudinaryAPI, folder string, logger *slog.Logger) *Cloudinary {
	if folder == "" {
		folder = DefaultFolder
	}
	return &Cloudinary{api: api, folder: folder, logger: logger}
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, info FileInfo, kind Kind) (*Result, error) {
	if file == nil {
		return nil, apperror.UploadFailed("No file provided", nil)
	}

	res, err := c.api.Upload(ctx, file, uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: string(kind),
	})
	if err != nil {
		c.logger.Error("cloudinary upload failed",
			slog.String("file", info.Name),
			slog.String("error", err.Error()),
		)
		return nil, apperror.UploadFailed("Upload failed", err)
	}
	// The SDK reports API-level failures in the result, not as an error.
	if res.Error.Message != "" {
		c.logger.Error("cloudinary rejected upload",
			slog.String("file", info.Name),
			slog.String("error", res.Error.Message),
		)
		return nil, apperror.UploadFailed("Upload failed", errors.New(res.Error.Message))
	}

	out := &Result{
		SecureURL:        res.SecureURL,
		URL:              res.URL,
		PublicID:         res.PublicID,
		Format:           res.Format,
		ResourceType:     res.ResourceType,
		Bytes:            int64(res.Bytes),
		Width:            res.Width,
		Height:           res.Height,
		OriginalFilename: res.OriginalFilename,
	}
	if out.OriginalFilename == "" {
		out.OriginalFilename = info.Name
	}

	c.logger.Info("asset uploaded",
		slog.String("provider", "cloudinary"),
		slog.String("public_id", out.PublicID),
		slog.Int64("bytes", out.Bytes),
	)
	return out, nil
}
