// file: internal/authorizer/static_test.go

package authorizer

import (
	"testing"
)

func TestBearerHeader(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "plain token", token: "abc123", want: "Bearer abc123"},
		{name: "jwt-ish token", token: "eyJhbGciOiJIUzI1NiJ9.e30.sig", want: "Bearer eyJhbGciOiJIUzI1NiJ9.e30.sig"},
		{name: "full printable range", token: "!~", want: "Bearer !~"},
		{name: "empty token", token: "", wantErr: true},
		{name: "embedded space", token: "ab cd", wantErr: true},
		{name: "control character", token: "ab\ncd", wantErr: true},
		{name: "non-ascii", token: "abcé", wantErr: true},
		{name: "del byte", token: "abc\x7f", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bearerHeader(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("bearerHeader(%q) expected error, got %q", tt.token, got)
				}
				if !IsEncodingError(err) {
					t.Errorf("bearerHeader(%q) error = %v, want encoding error", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("bearerHeader(%q) unexpected error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("bearerHeader(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestNewStaticToken(t *testing.T) {
	a, err := NewStaticToken("fixed-token")
	if err != nil {
		t.Fatalf("NewStaticToken() unexpected error: %v", err)
	}

	header, err := a.AuthorizationHeader()
	if err != nil {
		t.Fatalf("AuthorizationHeader() unexpected error: %v", err)
	}
	if header != "Bearer fixed-token" {
		t.Errorf("header = %q, want %q", header, "Bearer fixed-token")
	}
}

func TestNewStaticTokenRejectsBadToken(t *testing.T) {
	if _, err := NewStaticToken("has space"); !IsEncodingError(err) {
		t.Errorf("NewStaticToken() error = %v, want encoding error", err)
	}
	if _, err := NewStaticToken(""); !IsEncodingError(err) {
		t.Errorf("NewStaticToken(\"\") error = %v, want encoding error", err)
	}
}
