// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"errors"
	"net/http"

	"github.com/custodahq/custoda/internal/media"
)

// handleUpload accepts a multipart image upload and stores it in
// Cloudinary, returning the secure URL. The caller attaches the URL to a
// property, job or service request in a follow-up write; row writes are
// never blocked on media.
//
//	@Summary	Upload an image
//	@Tags		uploads
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Image file"
//	@Success	201		{object}	models.APIResponse{data=media.Upload}
//	@Router		/api/v1/uploads [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	if s.uploader == nil || !s.uploader.Enabled() {
		rw.ServiceUnavailable("media uploads are not configured")
		return
	}

	// One byte of multipart overhead headroom beyond the image limit.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Cloudinary.MaxUploadBytes+(64<<10))
	file, header, err := r.FormFile("file")
	if err != nil {
		rw.BadRequest("missing file field")
		return
	}
	defer file.Close()

	upload, err := s.uploader.UploadImage(r.Context(), c.OrgID, header.Filename, file)
	if err != nil {
		if errors.Is(err, media.ErrFileTooLarge) || errors.Is(err, media.ErrUnsupportedFormat) {
			rw.DomainError(err)
			return
		}
		rw.ExternalServiceError("cloudinary", err)
		return
	}
	rw.Created(upload)
}
