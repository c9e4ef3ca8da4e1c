package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		wantUser bool
		wantName string
	}{
		{name: "guest", headers: nil},
		{name: "blank id is a guest", headers: map[string]string{HeaderUserID: "  "}},
		{name: "id and name", headers: map[string]string{HeaderUserID: "u-1", HeaderUserName: "Rodney"}, wantUser: true, wantName: "Rodney"},
		{name: "name falls back to id", headers: map[string]string{HeaderUserID: "u-2"}, wantUser: true, wantName: "u-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got *User
				ok  bool
			)
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok = ContextProvider{}.CurrentUser(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if ok != tt.wantUser {
				t.Fatalf("user present = %v, want %v", ok, tt.wantUser)
			}
			if ok && got.DisplayName != tt.wantName {
				t.Fatalf("display name = %q, want %q", got.DisplayName, tt.wantName)
			}
		})
	}
}

func TestFromContextNilUser(t *testing.T) {
	if _, ok := FromContext(WithUser(context.Background(), nil)); ok {
		t.Fatal("nil user should not count as signed in")
	}
}
