package cli

import (
	"errors"
	"fmt"

	"minishield-dashboard/internal/gateway"
)

// friendly rewrites the gateway error taxonomy into operator-facing
// messages. Structured backend errors keep the server's own wording.
func friendly(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrNotConfigured):
		return fmt.Errorf("backend address not configured; run 'dashboard config set api-url <url>'")
	case errors.Is(err, gateway.ErrUnauthenticated):
		return fmt.Errorf("not logged in; run 'dashboard login'")
	default:
		if apiErr, ok := gateway.AsAPIError(err); ok {
			return fmt.Errorf("%s", apiErr.Message)
		}
		return err
	}
}
