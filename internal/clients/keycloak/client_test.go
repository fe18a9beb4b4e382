package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillbase/skillbase-backend/internal/apperr"
	"github.com/skillbase/skillbase-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// fakeRealm is a minimal identity provider endpoint set. Handlers can be
// swapped per test to simulate failures.
type fakeRealm struct {
	srv *httptest.Server

	tokenHandler      http.HandlerFunc
	endSessionHandler http.HandlerFunc
	usersHandler      http.HandlerFunc
}

func newFakeRealm(t *testing.T) *fakeRealm {
	t.Helper()
	f := &fakeRealm{}

	f.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken: "admin-token",
			ExpiresIn:   300,
			TokenType:   "Bearer",
		})
	}
	f.endSessionHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
	f.usersHandler = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]UserRecord{})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/realms/startups/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"token_endpoint":       f.srv.URL + "/token",
			"end_session_endpoint": f.srv.URL + "/logout",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) { f.tokenHandler(w, r) })
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) { f.endSessionHandler(w, r) })
	mux.HandleFunc("/auth/admin/realms/startups/users", func(w http.ResponseWriter, r *http.Request) { f.usersHandler(w, r) })

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRealm) client(t *testing.T) Client {
	t.Helper()
	c, err := New(testLogger(t), Config{
		Site:         f.srv.URL,
		Realm:        "startups",
		ClientID:     "backend",
		ClientSecret: "secret",
		MaxRetries:   0,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestFetchDiscoveryDocument(t *testing.T) {
	f := newFakeRealm(t)
	c := f.client(t)

	doc, err := c.FetchDiscoveryDocument(context.Background())
	if err != nil {
		t.Fatalf("FetchDiscoveryDocument: %v", err)
	}
	if doc["token_endpoint"] != f.srv.URL+"/token" {
		t.Fatalf("token_endpoint: got=%v", doc["token_endpoint"])
	}
}

func TestFetchDiscoveryDocumentUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(testLogger(t), Config{
		Site: srv.URL, Realm: "startups", ClientID: "backend", ClientSecret: "secret", MaxRetries: 0,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.FetchDiscoveryDocument(context.Background())
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("want ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchServiceAccountToken(t *testing.T) {
	f := newFakeRealm(t)
	f.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type: got=%q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("client_id") != "backend" || r.PostForm.Get("client_secret") != "secret" {
			t.Errorf("client credentials: %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok", ExpiresIn: 300})
	}
	c := f.client(t)

	token, err := c.FetchServiceAccountToken(context.Background())
	if err != nil {
		t.Fatalf("FetchServiceAccountToken: %v", err)
	}
	if token.AccessToken != "tok" {
		t.Fatalf("access token: got=%q", token.AccessToken)
	}
}

func TestFetchServiceAccountTokenFailed(t *testing.T) {
	f := newFakeRealm(t)
	f.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}
	c := f.client(t)

	_, err := c.FetchServiceAccountToken(context.Background())
	if !errors.Is(err, apperr.ErrTokenFetchFailed) {
		t.Fatalf("want ErrTokenFetchFailed, got %v", err)
	}
}

func TestSignOut(t *testing.T) {
	f := newFakeRealm(t)
	var gotRefresh string
	f.endSessionHandler = func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotRefresh = r.PostForm.Get("refresh_token")
		w.WriteHeader(http.StatusNoContent)
	}
	c := f.client(t)

	if err := c.SignOut(context.Background(), "refresh-123"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if gotRefresh != "refresh-123" {
		t.Fatalf("refresh_token: got=%q", gotRefresh)
	}
}

func TestSignOutFailed(t *testing.T) {
	f := newFakeRealm(t)
	f.endSessionHandler = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusBadRequest)
	}
	c := f.client(t)

	err := c.SignOut(context.Background(), "refresh-123")
	if !errors.Is(err, apperr.ErrSignOutFailed) {
		t.Fatalf("want ErrSignOutFailed, got %v", err)
	}
}

func TestSearchUsers(t *testing.T) {
	f := newFakeRealm(t)
	f.usersHandler = func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer admin-token" {
			t.Errorf("authorization: got=%q", got)
		}
		if got := r.URL.Query().Get("search"); got != "ada@example.com" {
			t.Errorf("search: got=%q", got)
		}
		_ = json.NewEncoder(w).Encode([]UserRecord{{
			ID: "u1", Username: "ada@example.com", Email: "ada@example.com", Enabled: true,
		}})
	}
	c := f.client(t)

	users, err := c.SearchUsers(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != "u1" {
		t.Fatalf("users: %+v", users)
	}
}

func TestSearchUsersFailed(t *testing.T) {
	f := newFakeRealm(t)
	f.usersHandler = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}
	c := f.client(t)

	_, err := c.SearchUsers(context.Background(), "ada@example.com")
	if !errors.Is(err, apperr.ErrSearchFailed) {
		t.Fatalf("want ErrSearchFailed, got %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	f := newFakeRealm(t)
	f.usersHandler = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got=%s", r.Method)
		}
		var rep userRep
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if rep.Username != "ada@example.com" || !rep.Enabled {
			t.Errorf("user rep: %+v", rep)
		}
		if len(rep.Credentials) != 1 || rep.Credentials[0].Type != "password" || rep.Credentials[0].Temporary {
			t.Errorf("credentials: %+v", rep.Credentials)
		}
		// The admin API returns an empty body; the id rides Location.
		w.Header().Set("Location", f.srv.URL+"/auth/admin/realms/startups/users/new-user-id")
		w.WriteHeader(http.StatusCreated)
	}
	c := f.client(t)

	user, err := c.CreateUser(context.Background(), "ada@example.com", "pw-123", "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID != "new-user-id" {
		t.Fatalf("user id from Location: got=%q", user.ID)
	}
	if user.Email != "ada@example.com" || user.FirstName != "Ada" {
		t.Fatalf("user: %+v", user)
	}
}

func TestCreateUserFailed(t *testing.T) {
	f := newFakeRealm(t)
	f.usersHandler = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessage":"User exists"}`, http.StatusConflict)
	}
	c := f.client(t)

	_, err := c.CreateUser(context.Background(), "ada@example.com", "pw-123", "Ada", "Lovelace")
	if !errors.Is(err, apperr.ErrUserCreationFailed) {
		t.Fatalf("want ErrUserCreationFailed, got %v", err)
	}
}
