package executor

import (
	"fmt"

	"github.com/superfaceai/one-sdk-go/manifest"
)

// profileCacheKey derives the stable key identifying one profile's
// configuration for cache purposes: its id plus whichever of version/file
// selects its document.
func profileCacheKey(id manifest.ProfileId, s manifest.ProfileSettings) string {
	if s.File != "" {
		return fmt.Sprintf("%s@file:%s", id, s.File)
	}
	return fmt.Sprintf("%s@%s", id, s.Version)
}

// providerCacheKey derives the stable key identifying one provider's
// configuration within a profile: the provider id plus whichever of
// file/mapVariant/mapRevision selects its map.
func providerCacheKey(id manifest.ProviderId, s manifest.ProfileProviderSettings) string {
	if s.File != "" {
		return fmt.Sprintf("%s@file:%s", id, s.File)
	}
	return fmt.Sprintf("%s@variant:%s@revision:%s", id, s.MapVariant, s.MapRevision)
}
