package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	subject string
	err     error
}

func (s *stubValidator) ValidateToken(string) (string, error) {
	return s.subject, s.err
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		validator  *stubValidator
		wantStatus int
	}{
		{"valid bearer token", "Bearer abc", &stubValidator{subject: "client-a"}, http.StatusOK},
		{"case-insensitive scheme", "bearer abc", &stubValidator{subject: "client-a"}, http.StatusOK},
		{"missing header", "", &stubValidator{subject: "client-a"}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", &stubValidator{subject: "client-a"}, http.StatusUnauthorized},
		{"malformed header", "Bearer", &stubValidator{subject: "client-a"}, http.StatusUnauthorized},
		{"validator rejects", "Bearer abc", &stubValidator{err: fmt.Errorf("expired")}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubject string
			handler := Auth(tt.validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotSubject, _ = Subject(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "client-a", gotSubject)
			}
		})
	}
}

func TestSubjectMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := Subject(req)
	require.Error(t, err)
}
