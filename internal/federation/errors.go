package federation

import "errors"

var (
	ErrProviderMisconfigured = errors.New("provider is misconfigured")
	ErrExchangeFailed        = errors.New("failed to exchange or refresh token with provider")
	ErrFetchUserInfoFailed   = errors.New("failed to fetch user info from provider")
)
