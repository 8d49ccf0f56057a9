package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/superfaceai/one-sdk-go/bind"
	"github.com/superfaceai/one-sdk-go/core"
	"github.com/superfaceai/one-sdk-go/manifest"
	"github.com/superfaceai/one-sdk-go/registry"
	"github.com/superfaceai/one-sdk-go/security"
)

// bindFactory returns a bind.Factory that resolves one provider's binding
// through the registry client, then resolves security by merging the
// provider's configured base values with any per-call overrides.
func (e *Executor) bindFactory(profileId manifest.ProfileId, profile manifest.ProfileSettings, providerId manifest.ProviderId, provider manifest.ProviderSettings, pp manifest.ProfileProviderSettings, overrides []security.Values) bind.Factory {
	return func(ctx context.Context, key string) (*bind.Provider, time.Time, error) {
		const op = "executor.bind"

		if e.registry == nil {
			return nil, time.Time{}, core.NewBindError(op, fmt.Sprintf("no registry client configured to bind provider %q", providerId), nil)
		}

		resp, err := e.registry.FetchBind(ctx, registry.BindRequest{
			ProfileId:      string(profileId),
			ProfileVersion: profile.Version,
			Provider:       string(providerId),
			MapVariant:     pp.MapVariant,
			MapRevision:    pp.MapRevision,
		})
		if err != nil {
			return nil, time.Time{}, core.NewBindError(op, fmt.Sprintf("registry rejected bind for provider %q", providerId), err)
		}

		service := resp.Provider.DefaultService
		if service == "" && len(resp.Provider.Services) > 0 {
			service = resp.Provider.Services[0].Id
		}
		if service == "" {
			return nil, time.Time{}, core.NewBindError(op, fmt.Sprintf("provider %q declares no service", providerId), nil)
		}

		merged, err := e.resolveSecurity(resp.Provider.SecuritySchemes, provider.Security, overrides)
		if err != nil {
			return nil, time.Time{}, core.NewConfigurationError(op, err.Error())
		}

		// Profile is left nil: resolving a profile source (file or version)
		// into a ProfileAST is the external profile parser's job (spec.md §1
		// lists the parser as an out-of-scope collaborator), and neither
		// registry.BindResponse nor any other input bindFactory receives
		// carries one — FetchBind's wire contract (spec.md §6) only returns
		// {provider, mapAst}. A host that wires a parser capable of
		// producing a UseCaseLister-implementing ProfileAST must resolve
		// profile.Version/profile.File itself and populate this field; until
		// then, executor.execute's "use case not found" check (§3) never
		// fires, since it only runs when bound.Profile implements
		// UseCaseLister.
		return &bind.Provider{
			Profile:    nil,
			Map:        resp.MapAST,
			Document:   resp.Provider,
			Service:    service,
			Security:   merged,
			Parameters: provider.Parameters,
			Bus:        e.bus,
		}, e.now().Add(e.bindTTL), nil
	}
}

// resolveSecurity resolves base (configured) security values and any
// per-call overrides against the provider's declared schemes, merging the
// two resolved sets with override winning on id collision.
func (e *Executor) resolveSecurity(schemes []security.Scheme, base []manifest.SecurityValues, overrides []security.Values) ([]security.Configuration, error) {
	baseValues := make([]security.Values, 0, len(base))
	for _, v := range base {
		baseValues = append(baseValues, security.Values{
			Id:       v.Id,
			APIKey:   v.APIKey,
			Username: v.Username,
			Password: v.Password,
			Token:    v.Token,
			Digest:   v.Digest,
		})
	}

	baseConfigs, err := security.Resolve(schemes, baseValues)
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return baseConfigs, nil
	}

	overrideConfigs, err := security.Resolve(schemes, overrides)
	if err != nil {
		return nil, err
	}
	return security.Merge(baseConfigs, overrideConfigs), nil
}
