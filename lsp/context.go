package lsp

import "context"

type clientKey struct{}

// WithClient attaches client to ctx so that code without a server handle
// can still message the editor.
func WithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// GetClient returns the client attached by WithClient, or nil.
func GetClient(ctx context.Context) Client {
	client, _ := ctx.Value(clientKey{}).(Client)
	return client
}
