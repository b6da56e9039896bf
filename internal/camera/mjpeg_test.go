package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
)

// mjpegServer streams the given JPEG payloads as one multipart response and
// ends the stream.
func mjpegServer(t *testing.T, payloads [][]byte) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := multipart.NewWriter(w)
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mw.Boundary())
		w.WriteHeader(http.StatusOK)

		for _, p := range payloads {
			part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
			if err != nil {
				return
			}
			part.Write(p)
		}
		mw.Close()
	}))
}

func encodeJPEG(t *testing.T, c color.RGBA) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestMJPEGSourceReadsFrames(t *testing.T) {
	srv := mjpegServer(t, [][]byte{
		encodeJPEG(t, color.RGBA{R: 255, A: 255}),
		encodeJPEG(t, color.RGBA{G: 255, A: 255}),
	})
	defer srv.Close()

	ctx := context.Background()
	source, err := NewMJPEGSource(ctx, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()

	first, err := source.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	r, _, _, _ := first.At(4, 4).RGBA()
	if r>>8 < 200 {
		t.Errorf("first frame red channel = %d, want a red frame", r>>8)
	}

	if _, err := source.Next(ctx); err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if _, err := source.Next(ctx); !errors.Is(err, ErrExhausted) {
		t.Errorf("error after stream end = %v, want ErrExhausted", err)
	}
}

func TestMJPEGSourceSkipsCorruptFrames(t *testing.T) {
	srv := mjpegServer(t, [][]byte{
		[]byte("not a jpeg"),
		encodeJPEG(t, color.RGBA{B: 255, A: 255}),
	})
	defer srv.Close()

	ctx := context.Background()
	source, err := NewMJPEGSource(ctx, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()

	img, err := source.Next(ctx)
	if err != nil {
		t.Fatalf("corrupt first part should be skipped, got %v", err)
	}
	_, _, b, _ := img.At(4, 4).RGBA()
	if b>>8 < 200 {
		t.Errorf("frame blue channel = %d, want a blue frame", b>>8)
	}
}

func TestMJPEGSourceRejectsNonMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	if _, err := NewMJPEGSource(context.Background(), srv.URL); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestMJPEGSourceRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewMJPEGSource(context.Background(), srv.URL); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
