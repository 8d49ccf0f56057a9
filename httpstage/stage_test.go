package httpstage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/superfaceai/one-sdk-go/core"
	"github.com/superfaceai/one-sdk-go/security"
)

func TestStage_Do_JSONRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("X-API-Key = %q", r.Header.Get("X-API-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	stage := New(nil)
	resp, err := stage.Do(context.Background(), Request{
		Method:         "GET",
		URL:            "/users/{id}",
		BaseURL:        srv.URL,
		PathParameters: map[string]any{"id": "42"},
		Accept:         "application/json",
		SecurityRequirements: []string{"key"},
		SecurityConfiguration: []security.Configuration{{
			Scheme: security.Scheme{Id: "key", Kind: security.KindAPIKey, In: security.InHeader, Name: "X-API-Key"},
			Values: security.Values{Id: "key", APIKey: "secret"},
		}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	body, ok := resp.Body.(map[string]any)
	if !ok || body["ok"] != true {
		t.Errorf("Body = %#v", resp.Body)
	}
}

func TestStage_Do_NonJSONBodyReturnedAsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	stage := New(nil)
	resp, err := stage.Do(context.Background(), Request{Method: "GET", URL: "/", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Body != "hello" {
		t.Errorf("Body = %#v", resp.Body)
	}
}

func TestStage_Do_5xxReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	stage := New(nil)
	_, err := stage.Do(context.Background(), Request{Method: "GET", URL: "/", BaseURL: srv.URL})
	if err == nil {
		t.Fatal("Do() = nil error, want HTTPError")
	}
	var e *core.Error
	if !asCoreError(err, &e) {
		t.Fatalf("error is not *core.Error: %v", err)
	}
	if e.Code != core.ErrHTTP {
		t.Errorf("Code = %v, want ErrHTTP", e.Code)
	}
	detail, ok := e.Detail.(*core.HTTPDetail)
	if !ok || detail.StatusCode != 500 {
		t.Errorf("Detail = %#v", e.Detail)
	}
}

func TestStage_Do_MissingContentTypeForPostIsCallerError(t *testing.T) {
	stage := New(nil)
	_, err := stage.Do(context.Background(), Request{
		Method:  "POST",
		URL:     "/",
		BaseURL: "https://example.com",
		Body:    map[string]any{"a": 1},
	})
	if err == nil {
		t.Fatal("Do() = nil error, want configuration error for missing content type")
	}
}

func TestStage_Do_FormURLEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		r.ParseForm()
		if r.FormValue("name") != "ada" {
			t.Errorf("form name = %q", r.FormValue("name"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	stage := New(nil)
	_, err := stage.Do(context.Background(), Request{
		Method:      "POST",
		URL:         "/",
		BaseURL:     srv.URL,
		Body:        map[string]any{"name": "ada"},
		ContentType: ContentFormURLEncoded,
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func asCoreError(err error, target **core.Error) bool {
	if e, ok := err.(*core.Error); ok {
		*target = e
		return true
	}
	return false
}
