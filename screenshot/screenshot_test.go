package screenshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"ux-auditor/logging"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := imaging.New(w, h, c)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) (image.Image, string) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img, format
}

func TestProcessUploadedImage(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"exact size", 1920, 1080},
		{"smaller", 800, 600},
		{"wider", 3840, 1000},
		{"taller", 1000, 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ProcessUploadedImage(encodePNG(t, tt.w, tt.h, color.Black))
			if err != nil {
				t.Fatalf("ProcessUploadedImage() error = %v", err)
			}
			img, format := decode(t, out)
			if format != "jpeg" {
				t.Errorf("format = %s, want jpeg", format)
			}
			if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), Width, Height)
			}
		})
	}
}

func TestProcessUploadedImageLetterboxesOnWhite(t *testing.T) {
	out, err := ProcessUploadedImage(encodePNG(t, 200, 100, color.Black))
	if err != nil {
		t.Fatalf("ProcessUploadedImage() error = %v", err)
	}
	img, _ := decode(t, out)

	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("corner pixel = (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(Width/2, Height/2).RGBA()
	if r>>8 > 15 || g>>8 > 15 || b>>8 > 15 {
		t.Errorf("centre pixel = (%d,%d,%d), want black", r>>8, g>>8, b>>8)
	}
}

func TestProcessUploadedImageRejectsGarbage(t *testing.T) {
	if _, err := ProcessUploadedImage([]byte("not an image")); err == nil {
		t.Fatal("expected error for undecodable input")
	}
}

func TestIdleTrackerWaitsForQuiet(t *testing.T) {
	tr := newIdleTracker()
	tr.poll = time.Millisecond
	tr.started("a")
	tr.started("b")

	go func() {
		time.Sleep(20 * time.Millisecond)
		tr.finished("a")
		tr.finished("b")
	}()

	start := time.Now()
	if !tr.waitIdle(context.Background(), 30*time.Millisecond, 2*time.Second) {
		t.Fatal("waitIdle() = false, want true")
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("returned after %v, before requests finished plus window", elapsed)
	}
	if tr.pending() != 0 {
		t.Errorf("pending = %d, want 0", tr.pending())
	}
}

func TestIdleTrackerCeiling(t *testing.T) {
	tr := newIdleTracker()
	tr.poll = time.Millisecond
	tr.started("stuck")

	start := time.Now()
	if tr.waitIdle(context.Background(), 10*time.Millisecond, 40*time.Millisecond) {
		t.Fatal("waitIdle() = true with a request still in flight")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("ceiling not honoured, waited %v", elapsed)
	}
}

func TestIdleTrackerIgnoresUnknownAndDuplicateIDs(t *testing.T) {
	tr := newIdleTracker()
	tr.started("r1")
	tr.started("r1")
	tr.finished("unknown")
	if tr.pending() != 1 {
		t.Fatalf("pending = %d, want 1", tr.pending())
	}
	tr.finished("r1")
	if tr.pending() != 0 {
		t.Fatalf("pending = %d, want 0", tr.pending())
	}
}

func TestIdleTrackerContextCancel(t *testing.T) {
	tr := newIdleTracker()
	tr.poll = time.Millisecond
	tr.started("x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if tr.waitIdle(ctx, time.Millisecond, time.Second) {
		t.Fatal("waitIdle() = true on cancelled context")
	}
}

func TestCaptureWebsiteDisabled(t *testing.T) {
	s := NewService(Config{Enabled: false}, logging.Discard())
	_, err := s.CaptureWebsite(context.Background(), "https://example.com")
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("error = %v, want ErrDisabled", err)
	}
	s.Close()
}
