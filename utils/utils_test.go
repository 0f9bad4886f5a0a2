package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	input   *s3.PutObjectInput
	body    []byte
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, f.err
}

func TestR2StorageDelete(t *testing.T) {
	fake := &fakeS3{}
	r := newR2Storage(fake, "photos", "https://cdn.test")

	if err := r.Delete(context.Background(), "donations/d1/1.jpg"); err != nil {
		t.Fatal(err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "photos/donations/d1/1.jpg" {
		t.Errorf("deleted = %v", fake.deleted)
	}

	fake.err = errors.New("boom")
	if err := r.Delete(context.Background(), "donations/d1/2.jpg"); err == nil {
		t.Error("expected delete error")
	}
}

func TestR2StoragePut(t *testing.T) {
	fake := &fakeS3{}
	r := newR2Storage(fake, "photos", "https://cdn.test/")

	url, err := r.Put(context.Background(), "donations/d1/1.jpg", []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://cdn.test/donations/d1/1.jpg" {
		t.Errorf("url = %s", url)
	}
	if *fake.input.Bucket != "photos" || *fake.input.Key != "donations/d1/1.jpg" || *fake.input.ContentType != "image/jpeg" {
		t.Errorf("input = %+v", fake.input)
	}
	if string(fake.body) != "img" {
		t.Errorf("body = %q", fake.body)
	}

	fake.err = errors.New("denied")
	if _, err := r.Put(context.Background(), "k", nil, ""); err == nil {
		t.Fatal("expected upload error")
	}
}

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func multipartFiles(t *testing.T, parts map[string][]byte, contentType string) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="photos"; filename="`+name+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		p, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = p.Write(data)
	}
	_ = w.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["photos"]
}

func TestReadImages(t *testing.T) {
	t.Run("sniffs missing content type", func(t *testing.T) {
		files := multipartFiles(t, map[string][]byte{"a.png": pngHeader}, "")
		got, err := ReadImages(files, 1024)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].ContentType != "image/png" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("rejects non images", func(t *testing.T) {
		files := multipartFiles(t, map[string][]byte{"a.txt": []byte("hello")}, "text/plain")
		if _, err := ReadImages(files, 1024); !errors.Is(err, ErrNotAnImage) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("rejects large files", func(t *testing.T) {
		files := multipartFiles(t, map[string][]byte{"a.jpg": bytes.Repeat([]byte("x"), 64)}, "image/jpeg")
		if _, err := ReadImages(files, 16); !errors.Is(err, ErrFileTooLarge) {
			t.Fatalf("err = %v", err)
		}
	})
}
