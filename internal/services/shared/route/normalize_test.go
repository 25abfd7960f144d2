package route

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRedirectTrailingSlash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		method   string
		path     string
		wantOK   bool
		wantCode int
		wantLoc  string
	}{
		{
			name:     "no trailing slash",
			method:   http.MethodGet,
			path:     "/healthz",
			wantOK:   false,
			wantCode: 200,
		},
		{
			name:     "trailing slash",
			method:   http.MethodGet,
			path:     "/healthz/",
			wantOK:   true,
			wantCode: http.StatusMovedPermanently,
			wantLoc:  "/healthz",
		},
		{
			name:     "query is kept",
			method:   http.MethodGet,
			path:     "/search/?term=brownie",
			wantOK:   true,
			wantCode: http.StatusMovedPermanently,
			wantLoc:  "/search?term=brownie",
		},
		{
			name:     "post keeps method",
			method:   http.MethodPost,
			path:     "/dbpedia/more/",
			wantOK:   true,
			wantCode: http.StatusPermanentRedirect,
			wantLoc:  "/dbpedia/more",
		},
		{
			name:     "root path",
			method:   http.MethodGet,
			path:     "/",
			wantOK:   false,
			wantCode: 200,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()

			got := RedirectTrailingSlash(rec, req)
			if got != tc.wantOK {
				t.Fatalf("RedirectTrailingSlash = %v, want %v", got, tc.wantOK)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			if got {
				if loc := rec.Header().Get("Location"); loc != tc.wantLoc {
					t.Fatalf("location = %q, want %q", loc, tc.wantLoc)
				}
			}
		})
	}
}
