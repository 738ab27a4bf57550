package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyAdminSecret(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		setHeader  bool
		want       bool
	}{
		{"exact match", "secret", "secret", true, true},
		{"mismatch", "secret", "Secret", true, false},
		{"trailing space", "secret", "secret ", true, false},
		{"longer value", "secret", "secret-and-more", true, false},
		{"missing header", "secret", "", false, false},
		{"empty header", "secret", "", true, false},
		{"unset secret", "", "", true, false},
		{"unset secret with header", "", "anything", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/functions/v1/delete-recent-messages", nil)
			if tt.setHeader {
				r.Header.Set("x-admin-secret", tt.header)
			}
			assert.Equal(t, tt.want, verifyAdminSecret(r, tt.configured))
		})
	}
}

func TestParseSinceMinutes(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`{"sinceMinutes":60}`, 60},
		{`{"sinceMinutes":1}`, 1},
		{`{"sinceMinutes":0.5}`, 0},
		{`{"sinceMinutes":"90"}`, 90},
		{`{"sinceMinutes":"soon"}`, 0},
		{`{"sinceMinutes":true}`, 0},
		{`{"sinceMinutes":null}`, 0},
		{`{"sinceMinutes":153722867}`, 153722867},
		{`{"sinceMinutes":153722868}`, 153722867},
		{`{"sinceMinutes":1e12}`, 153722867},
		{`[]`, 0},
		{``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSinceMinutes([]byte(tt.body)))
		})
	}
}
