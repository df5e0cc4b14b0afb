// Package tenant owns the multi-tenant registry: discovering which
// integrations exist from environment variables, and holding each
// integration's wired helpdesk and provider clients plus its
// behavioral flags.
//
// Grounded on config/config.go's env-driven setup and on main.go's
// per-userId WhatsApp config lookup, generalized from a single-tenant
// map keyed by userId to an indexed "_<n>" discovery convention.
package tenant

import (
	"wootrico/internal/helpdesk"
	"wootrico/internal/provider"
)

// Tenant bundles one integration's wired clients and behavior flags.
type Tenant struct {
	ID                 string
	WebhookName        string // path segment: POST /<WebhookName>
	DefaultCountry     string
	IgnoreGroups       bool
	ReopenResolved     bool
	SignAgentMessages  bool
	AgentSignatureName string
	ProviderDialect    provider.Dialect
	// ProviderIdentifier is the provider-side handle the registry
	// indexes this tenant by: the connected number's digits for
	// UAZAPI, the instance string for Z-API, the base URL for Wuzapi.
	ProviderIdentifier string

	Helpdesk *helpdesk.Client
	Provider provider.Client
}

// AgentSignature renders the prefix prepended to outbound agent
// messages when SignAgentMessages is set, e.g. "*Jane:*\n\n". When
// content is empty the signature stands alone with no trailing
// newlines.
func (t *Tenant) AgentSignature(agentName, content string) string {
	if !t.SignAgentMessages {
		return ""
	}
	name := agentName
	if t.AgentSignatureName != "" {
		name = t.AgentSignatureName
	}
	if name == "" {
		return ""
	}
	sig := "*" + name + ":*"
	if content == "" {
		return sig
	}
	return sig + "\n\n"
}
