package service

import "context"

// Confirmation is the capability of answering a yes/no prompt before a
// sensitive mutation (approval, deactivation). HTTP clients answer it with
// the confirmation flag they sent; interactive clients may prompt.
type Confirmation interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmationFunc adapts a plain function to the Confirmation interface.
type ConfirmationFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmation.
func (f ConfirmationFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// StaticConfirmation answers every prompt with a fixed decision.
func StaticConfirmation(confirmed bool) Confirmation {
	return ConfirmationFunc(func(context.Context, string) (bool, error) {
		return confirmed, nil
	})
}
