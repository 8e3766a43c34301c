package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tair/cosmetics-recommender/internal/recommendation/domain"
)

func TestImageLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/face.png":
			w.Header().Set("Content-Type", "image/png; charset=binary")
		case "/face.bmp":
			w.Header().Set("Content-Type", "image/bmp")
		default:
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("img"))
	}))
	defer srv.Close()

	loader := NewImageLoaderWithHTTP(srv.Client())

	tests := []struct {
		name     string
		ref      string
		wantData string
		wantMIME string
		wantErr  error
		anyErr   bool
	}{
		{name: "data uri", ref: "data:image/webp;base64,aW1n", wantData: "img", wantMIME: "image/webp"},
		{name: "data uri unknown type", ref: "data:image/tiff;base64,aW1n", wantData: "img", wantMIME: "image/jpeg"},
		{name: "bare base64", ref: "aW1n", wantData: "img", wantMIME: "image/jpeg"},
		{name: "url", ref: srv.URL + "/face.png", wantData: "img", wantMIME: "image/png"},
		{name: "url unsupported type", ref: srv.URL + "/face.bmp", wantData: "img", wantMIME: "image/jpeg"},
		{name: "bad base64", ref: "not base64!", wantErr: domain.ErrInvalidRequest},
		{name: "data uri without payload", ref: "data:image/png;base64", wantErr: domain.ErrInvalidRequest},
		{name: "missing url", ref: srv.URL + "/gone.png", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := loader.Load(context.Background(), tt.ref)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.anyErr:
				if err == nil || errors.Is(err, domain.ErrInvalidRequest) {
					t.Fatalf("Load() error = %v, want fetch error", err)
				}
				return
			case err != nil:
				t.Fatalf("Load() error = %v", err)
			}
			if string(data) != tt.wantData || mime != tt.wantMIME {
				t.Errorf("Load() = %q, %q", data, mime)
			}
		})
	}
}
