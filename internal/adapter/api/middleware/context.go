package middleware

import (
	"context"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

type contextKey int

const (
	accountKey contextKey = iota
	accountHolderKey
)

// accountHolder lets middleware installed outside the gate observe the
// account the gate resolves deeper in the chain, where a plain context value
// would not propagate back out.
type accountHolder struct {
	account *domain.Account
}

func withAccountHolder(ctx context.Context) (context.Context, *accountHolder) {
	holder := &accountHolder{}
	return context.WithValue(ctx, accountHolderKey, holder), holder
}

// WithAccount stores the resolved account in the request context and fills
// the holder when an outer middleware seeded one.
func WithAccount(ctx context.Context, account *domain.Account) context.Context {
	if holder, ok := ctx.Value(accountHolderKey).(*accountHolder); ok {
		holder.account = account
	}
	return context.WithValue(ctx, accountKey, account)
}

// AccountFromContext returns the account the gate resolved for this request,
// if any.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(accountKey).(*domain.Account)
	return account, ok
}
