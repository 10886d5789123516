package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func serve(h gin.HandlerFunc, header string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(HeaderRequestID, header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDPropagates(t *testing.T) {
	rec := serve(func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"ok": true}) }, "abc-123")

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("header = %q", got)
	}
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Metadata.RequestID != "abc-123" || body.Error != nil {
		t.Errorf("body = %+v", body)
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("a", 65)},
		{"control chars", "abc\r\nX-Injected: 1"},
		{"spaces", "abc 123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			rec := serve(func(c *gin.Context) {
				seen = RequestID(c)
				Success(c, http.StatusOK, nil)
			}, tt.header)

			got := rec.Header().Get(HeaderRequestID)
			if got == tt.header || len(got) != 36 {
				t.Errorf("header = %q, want a generated UUID", got)
			}
			if seen != got {
				t.Errorf("context id = %q, header = %q", seen, got)
			}
		})
	}
}

func TestFailWithMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"verbatim", "room is full", "room is full"},
		{"fallback", "", GetMessage(ErrServer)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(func(c *gin.Context) {
				FailWithMessage(c, http.StatusUnprocessableEntity, ErrServer, tt.message)
			}, "")
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d", rec.Code)
			}
			var body Response
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error == nil || body.Error.Message != tt.want || body.Error.Code != ErrServer {
				t.Errorf("error = %+v", body.Error)
			}
			if body.Metadata.RequestID == "" {
				t.Error("missing request id")
			}
		})
	}
}

func TestGetMessageDefault(t *testing.T) {
	if GetMessage(ErrCode("NOPE")) != "An unexpected error occurred." {
		t.Error("unexpected default message")
	}
}
