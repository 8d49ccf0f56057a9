package executor

import (
	"context"

	"github.com/superfaceai/one-sdk-go/bind"
	"github.com/superfaceai/one-sdk-go/httpstage"
)

// Validator is the profile parameter validator: a pluggable input/result
// checker. It is an external collaborator — the runtime never inspects a
// profile's declared shapes itself — consulted before and after the map
// interpreter runs.
type Validator interface {
	// ValidateInput checks composed input against useCase's declared input
	// shape on profile. A non-nil error becomes an InputValidationError and
	// the map interpreter is never invoked.
	ValidateInput(ctx context.Context, profile bind.ProfileAST, useCase string, input any) error

	// ValidateResult checks the map interpreter's result against useCase's
	// declared output shape. A non-nil error becomes a ResultValidationError.
	ValidateResult(ctx context.Context, profile bind.ProfileAST, useCase string, result any) error
}

// FetchFunc performs one HTTP request on behalf of the map interpreter,
// routed through the executor's pre-fetch/post-fetch event hooks.
type FetchFunc func(ctx context.Context, req httpstage.Request) (httpstage.Response, error)

// MapInterpreter executes a map AST against a concrete bound provider,
// translating profile-level input into one or more HTTP calls via fetch and
// producing the use-case's result. It is an external collaborator — the
// map language itself is out of scope for this runtime.
type MapInterpreter interface {
	Interpret(ctx context.Context, bound *bind.Provider, useCase string, input any, fetch FetchFunc) (any, error)
}

// UseCaseLister is an optional interface a ProfileAST may implement to let
// the executor validate a use-case name before invoking the map
// interpreter. ASTs that don't implement it skip this check; the map
// interpreter will surface an equivalent error regardless.
type UseCaseLister interface {
	UseCases() []string
}
