package httpstage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/superfaceai/one-sdk-go/core"
)

// Stage executes Requests through a shared resty client. One Stage is
// typically shared by every map invocation in a process; resty.Client
// itself has no per-call state, so concurrent Do calls are safe.
type Stage struct {
	client *resty.Client
}

// New returns a Stage backed by client, or a freshly constructed
// resty.Client when client is nil.
func New(client *resty.Client) *Stage {
	if client == nil {
		client = resty.New()
	}
	return &Stage{client: client}
}

var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// Do composes and sends one HTTP request for req, applying path/query
// interpolation, security injection, and content-type-aware body encoding,
// and returns the parsed response. A non-2xx response is returned as a
// *core.Error with code ErrHTTP carrying the response snapshot; the caller
// (the map interpreter) decides whether to treat that as handled.
func (s *Stage) Do(ctx context.Context, req Request) (Response, error) {
	const op = "httpstage.Do"

	method := strings.ToUpper(req.Method)
	if method == "" {
		return Response{}, core.NewConfigurationError(op, "method is required")
	}

	w := &workingRequest{
		pathParams: cloneAnyMap(req.PathParameters),
		query:      append([]QueryParam(nil), req.Query...),
		headers:    cloneStringMap(req.Headers),
		body:       req.Body,
	}

	if err := applySecurity(op, req.SecurityRequirements, req.SecurityConfiguration, w, req.DigestChallenge, method, req.URL); err != nil {
		return Response{}, err
	}

	path, err := interpolatePath(op, req.URL, w.pathParams)
	if err != nil {
		return Response{}, err
	}
	fullURL, err := composeURL(op, req.BaseURL, path)
	if err != nil {
		return Response{}, err
	}

	if bodyMethods[method] && w.body != nil && req.ContentType == "" {
		return Response{}, core.NewConfigurationError(op, fmt.Sprintf("%s request with a body requires a contentType", method))
	}

	rreq := s.client.R().SetContext(ctx)
	for k, v := range w.headers {
		rreq.SetHeader(k, v)
	}
	for _, q := range w.query {
		rreq.SetQueryParam(q.Key, stringifyPathValue(q.Value))
	}
	if req.Accept != "" {
		rreq.SetHeader("Accept", req.Accept)
	}

	if err := setBody(rreq, req.ContentType, w.body); err != nil {
		return Response{}, err
	}

	debug := DebugRequest{Method: method, URL: fullURL, Headers: w.headers, Body: w.body}

	resp, err := rreq.Execute(method, fullURL)
	if err != nil {
		return Response{}, core.NewError(op, core.ErrProviderDown, "HTTP request failed", err)
	}

	parsedBody := parseResponseBody(resp, req.Accept)

	result := Response{
		StatusCode: resp.StatusCode(),
		Headers:    resp.Header(),
		Body:       parsedBody,
	}
	result.Debug.Request = debug

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return result, core.NewHTTPError(op, &core.HTTPDetail{
			StatusCode: resp.StatusCode(),
			Method:     method,
			URL:        fullURL,
			Headers:    resp.Header(),
			Body:       resp.Body(),
		})
	}

	return result, nil
}

// setBody encodes body onto rreq per contentType. Non-primitive values in
// form and multipart bodies are JSON-encoded, per the stage's body
// encoding rule.
func setBody(rreq *resty.Request, contentType ContentType, body any) error {
	if body == nil {
		return nil
	}
	switch contentType {
	case ContentJSON, "":
		rreq.SetHeader("Content-Type", string(ContentJSON))
		rreq.SetBody(body)
	case ContentFormURLEncoded:
		form, err := toFormData(body)
		if err != nil {
			return err
		}
		rreq.SetFormData(form)
	case ContentMultipart:
		form, err := toFormData(body)
		if err != nil {
			return err
		}
		rreq.SetMultipartFormData(form)
	default:
		return core.NewConfigurationError("httpstage.Do", fmt.Sprintf("unsupported content type %q", contentType))
	}
	return nil
}

// toFormData flattens a map-shaped body into string=string pairs for form
// and multipart encoding. Non-primitive values are JSON-encoded.
func toFormData(body any) (map[string]string, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, core.NewConfigurationError("httpstage.Do", "form/multipart body must be an object")
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, core.NewConfigurationError("httpstage.Do", fmt.Sprintf("encoding form field %q: %v", k, err))
			}
			out[k] = string(b)
		}
	}
	return out, nil
}

// parseResponseBody decodes resp's body as JSON when its content-type or
// the caller's accept indicated JSON; otherwise it is returned as text.
func parseResponseBody(resp *resty.Response, accept string) any {
	ct := resp.Header().Get("Content-Type")
	if strings.Contains(ct, "application/json") || strings.Contains(accept, "application/json") {
		var v any
		if err := json.Unmarshal(resp.Body(), &v); err == nil {
			return v
		}
	}
	return string(resp.Body())
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
