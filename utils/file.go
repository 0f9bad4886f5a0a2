package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

var (
	ErrNotAnImage   = errors.New("file is not an image")
	ErrFileTooLarge = errors.New("file too large")
)

// Upload is an uploaded file read fully into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReadImage reads one uploaded image, sniffing the content type when the
// client did not send one.
func ReadImage(fileHeader *multipart.FileHeader, maxBytes int64) (Upload, error) {
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return Upload{}, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, fileHeader.Filename, fileHeader.Size)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read file: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Upload{}, fmt.Errorf("%w: %s", ErrFileTooLarge, fileHeader.Filename)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !strings.HasPrefix(contentType, "image/") {
		return Upload{}, fmt.Errorf("%w: %s (%s)", ErrNotAnImage, fileHeader.Filename, contentType)
	}

	return Upload{Filename: fileHeader.Filename, ContentType: contentType, Data: data}, nil
}

// ReadImages reads every file in order and stops at the first bad one.
func ReadImages(files []*multipart.FileHeader, maxBytes int64) ([]Upload, error) {
	out := make([]Upload, 0, len(files))
	for _, fh := range files {
		u, err := ReadImage(fh, maxBytes)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
