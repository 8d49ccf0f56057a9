package httpstage

import (
	"testing"

	"github.com/superfaceai/one-sdk-go/security"
)

func TestApplySecurity_APIKeyHeader(t *testing.T) {
	w := &workingRequest{pathParams: map[string]any{}, headers: map[string]string{}}
	cfg := security.Configuration{
		Scheme: security.Scheme{Id: "key", Kind: security.KindAPIKey, In: security.InHeader, Name: "X-API-Key"},
		Values: security.Values{Id: "key", APIKey: "secret"},
	}
	if err := applySecurity("op", []string{"key"}, []security.Configuration{cfg}, w, nil, "GET", "/"); err != nil {
		t.Fatalf("applySecurity: %v", err)
	}
	if w.headers["X-API-Key"] != "secret" {
		t.Errorf("headers = %+v", w.headers)
	}
}

func TestApplySecurity_APIKeyBodyRequiresObject(t *testing.T) {
	w := &workingRequest{pathParams: map[string]any{}, headers: map[string]string{}, body: "not an object"}
	cfg := security.Configuration{
		Scheme: security.Scheme{Id: "key", Kind: security.KindAPIKey, In: security.InBody, Name: "api_key"},
		Values: security.Values{Id: "key", APIKey: "secret"},
	}
	if err := applySecurity("op", []string{"key"}, []security.Configuration{cfg}, w, nil, "POST", "/"); err == nil {
		t.Fatal("applySecurity() = nil error, want error for non-object body")
	}
}

func TestApplySecurity_Basic(t *testing.T) {
	w := &workingRequest{pathParams: map[string]any{}, headers: map[string]string{}}
	cfg := security.Configuration{
		Scheme: security.Scheme{Id: "b", Kind: security.KindHTTPBasic},
		Values: security.Values{Id: "b", Username: "alice", Password: "secret"},
	}
	if err := applySecurity("op", []string{"b"}, []security.Configuration{cfg}, w, nil, "GET", "/"); err != nil {
		t.Fatalf("applySecurity: %v", err)
	}
	if w.headers["Authorization"] != "Basic YWxpY2U6c2VjcmV0" {
		t.Errorf("Authorization = %q", w.headers["Authorization"])
	}
}

func TestApplySecurity_Bearer(t *testing.T) {
	w := &workingRequest{pathParams: map[string]any{}, headers: map[string]string{}}
	cfg := security.Configuration{
		Scheme: security.Scheme{Id: "t", Kind: security.KindHTTPBearer},
		Values: security.Values{Id: "t", Token: "abc123"},
	}
	if err := applySecurity("op", []string{"t"}, []security.Configuration{cfg}, w, nil, "GET", "/"); err != nil {
		t.Fatalf("applySecurity: %v", err)
	}
	if w.headers["Authorization"] != "Bearer abc123" {
		t.Errorf("Authorization = %q", w.headers["Authorization"])
	}
}

func TestApplySecurity_MissingRequirementFails(t *testing.T) {
	w := &workingRequest{pathParams: map[string]any{}, headers: map[string]string{}}
	if err := applySecurity("op", []string{"missing"}, nil, w, nil, "GET", "/"); err == nil {
		t.Fatal("applySecurity() = nil error, want error for unresolved requirement")
	}
}

func TestApplySecurity_DigestPrecomputed(t *testing.T) {
	w := &workingRequest{pathParams: map[string]any{}, headers: map[string]string{}}
	cfg := security.Configuration{
		Scheme: security.Scheme{Id: "d", Kind: security.KindHTTPDigest},
		Values: security.Values{Id: "d", Digest: "Digest realm=..."},
	}
	if err := applySecurity("op", []string{"d"}, []security.Configuration{cfg}, w, nil, "GET", "/"); err != nil {
		t.Fatalf("applySecurity: %v", err)
	}
	if w.headers["Authorization"] != "Digest realm=..." {
		t.Errorf("Authorization = %q", w.headers["Authorization"])
	}
}

func TestApplySecurity_DigestChallengeHelper(t *testing.T) {
	w := &workingRequest{pathParams: map[string]any{}, headers: map[string]string{}}
	cfg := security.Configuration{
		Scheme: security.Scheme{Id: "d", Kind: security.KindHTTPDigest},
		Values: security.Values{Id: "d", Username: "alice", Password: "secret"},
	}
	challenge := func(method, url string) (string, error) {
		return "Digest response=computed", nil
	}
	if err := applySecurity("op", []string{"d"}, []security.Configuration{cfg}, w, challenge, "GET", "/x"); err != nil {
		t.Fatalf("applySecurity: %v", err)
	}
	if w.headers["Authorization"] != "Digest response=computed" {
		t.Errorf("Authorization = %q", w.headers["Authorization"])
	}
}
