package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// MediaKind selects the media subtree and the validation rules for an upload.
type MediaKind string

const (
	MediaImage MediaKind = "images"
	MediaVideo MediaKind = "videos"

	// MaxImageBytes caps image uploads at 5MB.
	MaxImageBytes int64 = 5 * 1024 * 1024
	// MaxVideoBytes caps video uploads at 25MB.
	MaxVideoBytes int64 = 25 * 1024 * 1024

	// sniffLen is how many leading bytes filetype needs for magic-number matching.
	sniffLen = 261
)

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}
var allowedVideoExts = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".mkv": true}

// ValidateMedia checks extension, size cap and magic bytes of an upload.
// It returns an empty string when the file is acceptable, otherwise a
// user-facing field error message.
func ValidateMedia(kind MediaKind, fh *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	switch kind {
	case MediaImage:
		if !allowedImageExts[ext] {
			return "Allowed image extensions: jpg, jpeg, png, gif."
		}
		if fh.Size > MaxImageBytes {
			return "Image file size cannot exceed 5MB."
		}
	case MediaVideo:
		if !allowedVideoExts[ext] {
			return "Allowed video extensions: mp4, mov, avi, mkv."
		}
		if fh.Size > MaxVideoBytes {
			return "Video file size cannot exceed 25MB."
		}
	}

	f, err := fh.Open()
	if err != nil {
		return "Uploaded file could not be read."
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "Uploaded file could not be read."
	}
	head = head[:n]

	if kind == MediaImage && !filetype.IsImage(head) {
		return "File content does not look like an image."
	}
	if kind == MediaVideo && !filetype.IsVideo(head) {
		return "File content does not look like a video."
	}
	return ""
}

// SaveMedia stores an upload under <mediaRoot>/posts/<kind>/<username>/<filename>
// and returns the media-store relative path. A colliding filename from the
// same author overwrites the previous file; no dedup or checksum is kept.
func SaveMedia(mediaRoot string, kind MediaKind, username string, fh *multipart.FileHeader) (string, error) {
	name := filepath.Base(fh.Filename)
	if name == "." || name == "" || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", fh.Filename)
	}

	dir := filepath.Join(mediaRoot, "posts", string(kind), username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer dst.Close()

	limit := MaxImageBytes
	if kind == MediaVideo {
		limit = MaxVideoBytes
	}
	lr := &io.LimitedReader{R: src, N: limit + 1}
	written, err := io.Copy(dst, lr)
	if err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if written > limit {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("upload exceeds %d bytes", limit)
	}

	return path.Join("posts", string(kind), username, name), nil
}

// RemoveMedia deletes a stored media file, best-effort.
func RemoveMedia(mediaRoot, rel string) {
	if rel == "" {
		return
	}
	_ = os.Remove(filepath.Join(mediaRoot, filepath.FromSlash(rel)))
}
