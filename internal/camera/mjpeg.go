package camera

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// MJPEGSource reads frames from an MJPEG (multipart/x-mixed-replace) HTTP
// stream, the usual interface of camera daemons.
type MJPEGSource struct {
	resp   *http.Response
	reader *multipart.Reader
}

// NewMJPEGSource connects to the stream URL. Connection or content-type
// failures are ErrUnavailable.
func NewMJPEGSource(ctx context.Context, url string) (*MJPEGSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream %s returned status %d: %w", url, resp.StatusCode, ErrUnavailable)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("stream %s is not multipart MJPEG: %w", url, ErrUnavailable)
	}

	return &MJPEGSource{
		resp:   resp,
		reader: multipart.NewReader(resp.Body, params["boundary"]),
	}, nil
}

// Next blocks until the stream delivers the next JPEG part. Stream end or a
// broken connection reads as exhaustion.
func (s *MJPEGSource) Next(ctx context.Context) (image.Image, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		part, err := s.reader.NextPart()
		if err != nil {
			return nil, ErrExhausted
		}

		img, err := jpeg.Decode(part)
		part.Close()
		if err != nil {
			continue // corrupt frame, wait for the next one
		}
		return img, nil
	}
}

func (s *MJPEGSource) Close() error {
	return s.resp.Body.Close()
}
