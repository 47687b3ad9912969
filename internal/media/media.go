// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package media uploads images to Cloudinary. Uploads are validated
// locally (size cap, image content types only) before any bytes leave
// the process; upstream failures surface as errors for the API layer to
// map, never as partial writes.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/metrics"
)

// Validation errors, mapped to 400s by the API layer. Upstream failures
// are returned as-is and map to 502.
var (
	ErrUploadsDisabled   = errors.New("media uploads are not enabled")
	ErrFileTooLarge      = errors.New("file exceeds the upload size limit")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// allowedImageTypes are the sniffed content types accepted for upload.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Upload is a stored image.
type Upload struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"url"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

// Uploader stores images in Cloudinary under per-org folders.
type Uploader struct {
	cfg config.CloudinaryConfig
	cld *cloudinary.Cloudinary
}

// NewUploader creates an uploader. A disabled config returns a working
// value whose Upload rejects with ErrUploadsDisabled.
func NewUploader(cfg config.CloudinaryConfig) (*Uploader, error) {
	u := &Uploader{cfg: cfg}
	if !cfg.Enabled {
		return u, nil
	}
	cld, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid cloudinary credentials: %w", err)
	}
	cld.Config.URL.Secure = true
	u.cld = cld
	return u, nil
}

// Enabled reports whether uploads are configured.
func (u *Uploader) Enabled() bool {
	return u.cfg.Enabled && u.cld != nil
}

// UploadImage validates and stores one image, returning its secure URL.
func (u *Uploader) UploadImage(ctx context.Context, orgID uuid.UUID, filename string, r io.Reader) (upload *Upload, err error) {
	var size int64
	defer func() {
		metrics.RecordMediaUpload(size, err)
	}()

	if !u.Enabled() {
		return nil, ErrUploadsDisabled
	}

	data, err := readImage(r, u.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	size = int64(len(data))

	publicID := path.Join(u.cfg.Folder, orgID.String(), uuid.NewString())
	resp, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		logging.Error().Err(err).
			Str("org_id", orgID.String()).
			Str("filename", filename).
			Msg("cloudinary upload failed")
		return nil, fmt.Errorf("cloudinary upload failed: %w", err)
	}

	logging.Info().
		Str("org_id", orgID.String()).
		Str("public_id", resp.PublicID).
		Int64("bytes", size).
		Msg("image uploaded")

	return &Upload{
		PublicID:  resp.PublicID,
		SecureURL: resp.SecureURL,
		Format:    resp.Format,
		Bytes:     size,
	}, nil
}

// readImage buffers the upload, enforcing the size cap and sniffing the
// content type before anything is sent upstream.
func readImage(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrUnsupportedFormat
	}
	if contentType := http.DetectContentType(data); !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}
	return data, nil
}
