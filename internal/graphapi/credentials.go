package graphapi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	tenantIdentifierFieldNameConstant   = "tenant_id"
	clientIdentifierFieldNameConstant   = "client_id"
	clientSecretFieldNameConstant       = "client_secret"
	tokenScopeFieldNameConstant         = "token_scope"
	credentialMissingMessageConstant    = "token credential not configured"
	tokenExpiryRefreshMarginConstant    = 2 * time.Minute
	requiredCredentialValueMessageConst = "value required"
)

// CredentialSettings carries the client-credential inputs for token acquisition.
type CredentialSettings struct {
	TenantIdentifier string
	ClientIdentifier string
	ClientSecret     string
	TokenScope       string
}

// TokenProvider supplies bearer tokens for gateway requests.
type TokenProvider interface {
	AccessToken(executionContext context.Context) (string, error)
}

var errCredentialMissing = errors.New(credentialMissingMessageConstant)

// ClientSecretTokenProvider acquires tokens through an Azure AD client-secret credential
// and caches them until shortly before expiry.
type ClientSecretTokenProvider struct {
	credential azcore.TokenCredential
	tokenScope string

	cacheMutex       sync.Mutex
	cachedToken      string
	cachedExpiryTime time.Time
}

// NewClientSecretTokenProvider constructs a provider from client-credential settings.
func NewClientSecretTokenProvider(settings CredentialSettings) (*ClientSecretTokenProvider, error) {
	if len(strings.TrimSpace(settings.TenantIdentifier)) == 0 {
		return nil, InvalidInputError{FieldName: tenantIdentifierFieldNameConstant, Message: requiredCredentialValueMessageConst}
	}
	if len(strings.TrimSpace(settings.ClientIdentifier)) == 0 {
		return nil, InvalidInputError{FieldName: clientIdentifierFieldNameConstant, Message: requiredCredentialValueMessageConst}
	}
	if len(strings.TrimSpace(settings.ClientSecret)) == 0 {
		return nil, InvalidInputError{FieldName: clientSecretFieldNameConstant, Message: requiredCredentialValueMessageConst}
	}
	if len(strings.TrimSpace(settings.TokenScope)) == 0 {
		return nil, InvalidInputError{FieldName: tokenScopeFieldNameConstant, Message: requiredCredentialValueMessageConst}
	}

	secretCredential, credentialError := azidentity.NewClientSecretCredential(
		settings.TenantIdentifier,
		settings.ClientIdentifier,
		settings.ClientSecret,
		nil,
	)
	if credentialError != nil {
		return nil, credentialError
	}

	return &ClientSecretTokenProvider{credential: secretCredential, tokenScope: settings.TokenScope}, nil
}

// NewTokenProviderFromCredential wraps an existing token credential, primarily for tests.
func NewTokenProviderFromCredential(credential azcore.TokenCredential, tokenScope string) (*ClientSecretTokenProvider, error) {
	if credential == nil {
		return nil, errCredentialMissing
	}
	if len(strings.TrimSpace(tokenScope)) == 0 {
		return nil, InvalidInputError{FieldName: tokenScopeFieldNameConstant, Message: requiredCredentialValueMessageConst}
	}
	return &ClientSecretTokenProvider{credential: credential, tokenScope: tokenScope}, nil
}

// AccessToken returns a cached token or requests a fresh one when the cache is stale.
func (provider *ClientSecretTokenProvider) AccessToken(executionContext context.Context) (string, error) {
	provider.cacheMutex.Lock()
	defer provider.cacheMutex.Unlock()

	if len(provider.cachedToken) > 0 && time.Now().Add(tokenExpiryRefreshMarginConstant).Before(provider.cachedExpiryTime) {
		return provider.cachedToken, nil
	}

	acquiredToken, acquisitionError := provider.credential.GetToken(executionContext, policy.TokenRequestOptions{
		Scopes: []string{provider.tokenScope},
	})
	if acquisitionError != nil {
		return "", acquisitionError
	}

	provider.cachedToken = acquiredToken.Token
	provider.cachedExpiryTime = acquiredToken.ExpiresOn

	return provider.cachedToken, nil
}
