package catalog

import "context"

// Fetcher retrieves one raw store products response. Timeouts, retries and
// authentication belong to the implementation.
type Fetcher interface {
	Fetch(ctx context.Context) (status int, body []byte, err error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (int, []byte, error)

// Fetch calls f(ctx).
func (f FetcherFunc) Fetch(ctx context.Context) (int, []byte, error) {
	return f(ctx)
}

// Static returns a Fetcher that always yields body with status 200.
func Static(body []byte) Fetcher {
	return FetcherFunc(func(context.Context) (int, []byte, error) {
		return 200, body, nil
	})
}
