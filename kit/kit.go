// Package kit adapts plain request/response endpoints to the picker's
// control transports and carries request metadata in the context.
package kit

import "context"

// Endpoint handles one decoded request.
type Endpoint func(ctx context.Context, req any) (any, error)
