package ops

import (
	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/manifest"
)

// validateParams is the single gate every Service method calls before
// doing any work, rejecting request fields outside the manifest's
// supported surface for that method.
func validateParams(method string, present []string) error {
	if err := manifest.ValidateParams(method, present); err != nil {
		return core.NewNotSupportedError(method, "request parameter", err.Error())
	}
	return nil
}
