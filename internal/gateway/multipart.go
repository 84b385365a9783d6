package gateway

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/voxstory/voxstory-client/internal/apierr"
)

// UploadFile POSTs filePath as a multipart form to path, reporting
// fractional upload progress through onProgress (which may be nil). Extra
// string fields are added alongside the file part.
//
// Upload is used by the interactive clone flow, so an offline device fails
// fast here instead of queueing.
func (g *Gateway) UploadFile(ctx context.Context, path, fieldName, filePath string, fields map[string]string, onProgress func(float64)) ([]byte, error) {
	if !g.monitor.Online() {
		return nil, apierr.New(apierr.CodeOffline, "upload requires a network connection")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeStorageError, err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(fieldName, filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	// Deliberately no request deadline here: a voice sample upload on a slow
	// link can legitimately outlast the per-request timeout. The caller's
	// context is the only bound.
	body := &progressReader{r: &buf, total: int64(buf.Len()), onProgress: onProgress}
	req, err := g.newRequest(ctx, "POST", path, body, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, apierr.FromTransport("POST "+path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierr.FromStatus(resp.StatusCode, respBody, "POST "+path)
	}
	return respBody, nil
}

// Stream opens a GET against path and returns the body reader plus the
// declared content length (-1 when unknown). Caller owns closing the reader.
func (g *Gateway) Stream(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	req, err := g.newRequest(ctx, "GET", path, nil, "")
	if err != nil {
		return nil, 0, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, 0, apierr.FromTransport("GET "+path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, 0, apierr.FromStatus(resp.StatusCode, body, "GET "+path)
	}
	return resp.Body, resp.ContentLength, nil
}

// progressReader reports cumulative read fraction as the HTTP transport
// consumes the request body.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	onProgress func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.onProgress != nil && p.total > 0 {
		read := atomic.AddInt64(&p.read, int64(n))
		frac := float64(read) / float64(p.total)
		if frac > 1 {
			frac = 1
		}
		p.onProgress(frac)
	}
	return n, err
}
