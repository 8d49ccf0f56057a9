package security

import "testing"

func TestResolve_APIKey(t *testing.T) {
	schemes := []Scheme{{Id: "api_key", Kind: KindAPIKey, In: InHeader, Name: "X-API-Key"}}
	values := []Values{{Id: "api_key", APIKey: "secret"}}

	configs, err := Resolve(schemes, values)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(configs) != 1 || configs[0].Values.APIKey != "secret" {
		t.Fatalf("configs = %+v", configs)
	}
}

func TestResolve_SchemeNotFound(t *testing.T) {
	_, err := Resolve(nil, []Values{{Id: "missing"}})
	if err == nil {
		t.Fatal("Resolve() = nil error, want not-found error")
	}
}

func TestResolve_InvalidShape(t *testing.T) {
	schemes := []Scheme{{Id: "basic", Kind: KindHTTPBasic}}
	values := []Values{{Id: "basic", Username: "alice"}} // missing password

	if _, err := Resolve(schemes, values); err == nil {
		t.Fatal("Resolve() = nil error, want shape error")
	}
}

func TestResolve_AllKinds(t *testing.T) {
	schemes := []Scheme{
		{Id: "key", Kind: KindAPIKey},
		{Id: "basic", Kind: KindHTTPBasic},
		{Id: "bearer", Kind: KindHTTPBearer},
		{Id: "digest", Kind: KindHTTPDigest},
	}
	values := []Values{
		{Id: "key", APIKey: "k"},
		{Id: "basic", Username: "u", Password: "p"},
		{Id: "bearer", Token: "t"},
		{Id: "digest", Digest: "d"},
	}
	configs, err := Resolve(schemes, values)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(configs) != 4 {
		t.Fatalf("len(configs) = %d, want 4", len(configs))
	}
}

func TestMerge_OverrideWinsById(t *testing.T) {
	base := []Configuration{
		{Scheme: Scheme{Id: "a"}, Values: Values{Id: "a", APIKey: "base-a"}},
		{Scheme: Scheme{Id: "b"}, Values: Values{Id: "b", APIKey: "base-b"}},
	}
	overrides := []Configuration{
		{Scheme: Scheme{Id: "a"}, Values: Values{Id: "a", APIKey: "override-a"}},
	}

	merged := Merge(base, overrides)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].Values.APIKey != "override-a" {
		t.Errorf("merged[0].Values.APIKey = %q, want override-a", merged[0].Values.APIKey)
	}
	if merged[1].Values.APIKey != "base-b" {
		t.Errorf("merged[1].Values.APIKey = %q, want base-b", merged[1].Values.APIKey)
	}
}

func TestMerge_OverrideIntroducesNewId(t *testing.T) {
	base := []Configuration{{Scheme: Scheme{Id: "a"}, Values: Values{Id: "a"}}}
	overrides := []Configuration{{Scheme: Scheme{Id: "c"}, Values: Values{Id: "c"}}}

	merged := Merge(base, overrides)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].Scheme.Id != "a" || merged[1].Scheme.Id != "c" {
		t.Errorf("merged order = [%s, %s], want [a, c]", merged[0].Scheme.Id, merged[1].Scheme.Id)
	}
}
