package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc.def.ghi", "abc.def.ghi", false},
		{"  Bearer token  ", "token", false},
		{"", "", true},
		{"Bearer ", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
		{"abc.def.ghi", "", true},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("header %q: expected error", tc.header)
			}
			continue
		}
		if err != nil {
			t.Fatalf("header %q: %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("header %q: got %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	for _, p := range []string{"/register", "/login", "/logout", "/healthz", "/readyz", "/metrics", "/"} {
		if !isPublicPath(p) {
			t.Fatalf("expected %q public", p)
		}
	}
	for _, p := range []string{"/loans", "/users/me", "/admin/users", "/predict", "/loans/LC-1"} {
		if isPublicPath(p) {
			t.Fatalf("expected %q protected", p)
		}
	}
}
