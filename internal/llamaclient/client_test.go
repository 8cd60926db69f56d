package llamaclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func testClient() *Client {
	return New(zerolog.Nop())
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func asStatusError(err error, target **StatusError) bool {
	return errors.As(err, target)
}

func TestHealth(t *testing.T) {
	healthy := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"code":503,"message":"Loading model"}}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := testClient()
	if err := c.Health(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error while loading")
	}
	healthy = true
	if err := c.Health(context.Background(), srv.URL); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestListModelsEnvelopes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"models envelope", `{"models":[{"id":"a","state":"loaded"},{"id":"b","state":"unloaded"}]}`},
		{"data envelope", `{"data":[{"model":"a","status":"loaded"},{"name":"b"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/models" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			models, err := testClient().ListModels(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(models) != 2 {
				t.Fatalf("expected 2 models, got %+v", models)
			}
			if models[0].ID != "a" || !models[0].Loaded() {
				t.Fatalf("unexpected first entry: %+v", models[0])
			}
			if models[1].ID != "b" || models[1].Loaded() {
				t.Fatalf("unexpected second entry: %+v", models[1])
			}
		})
	}
}

func TestLoadUnloadModel(t *testing.T) {
	var gotPath, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		if err := readJSON(r, &body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		gotModel = body["model"]
		if gotModel == "missing" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":404,"message":"model not found"}}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient()
	if err := c.LoadModel(context.Background(), srv.URL, "tiny"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotPath != "/models/load" || gotModel != "tiny" {
		t.Fatalf("unexpected request %s %s", gotPath, gotModel)
	}
	if err := c.UnloadModel(context.Background(), srv.URL, "tiny"); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if gotPath != "/models/unload" {
		t.Fatalf("unexpected path %s", gotPath)
	}

	err := c.LoadModel(context.Background(), srv.URL, "missing")
	if err == nil {
		t.Fatalf("expected load error")
	}
	var se *StatusError
	if !asStatusError(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
}

func TestParseServerError(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"error":{"code":500,"message":"boom"}}`, "server error (500): boom"},
		{`{"error":{"message":"bare"}}`, "bare"},
		{`{"error":"plain string"}`, "plain string"},
		{`not json at all`, "not json at all"},
		{``, "no error body"},
	}
	for _, tc := range cases {
		if got := parseServerError([]byte(tc.raw)); got != tc.want {
			t.Fatalf("parseServerError(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
