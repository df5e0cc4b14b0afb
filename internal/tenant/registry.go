package tenant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"wootrico/internal/envconf"
	"wootrico/internal/helpdesk"
	"wootrico/internal/normalize"
	"wootrico/internal/provider"
)

const maxDiscoveryIndex = 50

// discoveryBaseNames are the env var base names indexedIntegrations
// scans for, suffixed with "_<n>". A tenant id is recognized as soon as
// any one of them is set for that index, not just the helpdesk base
// URL, since a tenant may be defined by provider-side keys alone.
var discoveryBaseNames = []string{
	"CHATWOOT_BASE_URL", "CHATWOOT_TOKEN", "CHATWOOT_ACCOUNT_ID", "CHATWOOT_INBOX_NAME",
	"UAZAPI_BASE_URL", "UAZAPI_TOKEN", "UAZAPI_NUMBER",
	"ZAPI_INSTANCE_ID", "ZAPI_TOKEN", "ZAPI_CLIENT_TOKEN",
	"WUZAPI_BASE_URL", "WUZAPI_TOKEN",
}

// Registry holds every discovered tenant, indexed by id, by the webhook
// path segment routes are matched against, and by provider identifier.
type Registry struct {
	byID                 map[string]*Tenant
	byWebhook            map[string]*Tenant
	byProviderIdentifier map[string]*Tenant
}

// NewRegistry builds a Registry directly from an already-constructed
// set of tenants, bypassing environment discovery. Used by tests and
// by any future caller that assembles tenants from a source other than
// process environment variables.
func NewRegistry(tenants ...*Tenant) *Registry {
	reg := &Registry{byID: map[string]*Tenant{}, byWebhook: map[string]*Tenant{}, byProviderIdentifier: map[string]*Tenant{}}
	for _, t := range tenants {
		reg.add(t)
	}
	return reg
}

func (r *Registry) add(t *Tenant) {
	r.byID[t.ID] = t
	r.byWebhook[t.WebhookName] = t
	if id := providerIdentifierFor(t); id != "" {
		r.byProviderIdentifier[id] = t
	}
}

// Lookup returns the tenant registered under id.
func (r *Registry) Lookup(id string) (*Tenant, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// LookupByWebhook returns the tenant whose webhook path segment is name.
func (r *Registry) LookupByWebhook(name string) (*Tenant, bool) {
	t, ok := r.byWebhook[name]
	return t, ok
}

// LookupByProviderIdentifier returns the tenant matching a provider-side
// identifier: for UAZAPI the normalized digits of the connected number,
// for Z-API the instance string, for Wuzapi a case-insensitive base URL.
func (r *Registry) LookupByProviderIdentifier(id string) (*Tenant, bool) {
	t, ok := r.byProviderIdentifier[normalizeProviderIdentifier(id)]
	return t, ok
}

func providerIdentifierFor(t *Tenant) string {
	return normalizeProviderIdentifier(t.ProviderIdentifier)
}

func normalizeProviderIdentifier(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// All returns every discovered tenant, order unspecified.
func (r *Registry) All() []*Tenant {
	out := make([]*Tenant, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	return out
}

// Discover builds the Registry from environment variables. Discovery
// order: an explicit INTEGRATIONS comma list takes priority; otherwise
// every "_<n>" suffix up to maxDiscoveryIndex that carries any
// recognized base name is picked up; and if neither yields anything, a
// single unnamed "default" tenant is built from unsuffixed variables.
// Load is tolerant: a tenant that fails to build is logged and
// skipped; Discover fails only when no tenant builds at all.
func Discover(log zerolog.Logger) (*Registry, error) {
	ids := explicitIntegrations()
	if len(ids) == 0 {
		ids = indexedIntegrations()
	}

	reg := &Registry{byID: map[string]*Tenant{}, byWebhook: map[string]*Tenant{}, byProviderIdentifier: map[string]*Tenant{}}

	if len(ids) == 0 {
		t, err := buildTenant("default", "", log)
		if err != nil {
			return nil, fmt.Errorf("tenant: default: %w", err)
		}
		reg.add(t)
		return reg, nil
	}

	var errs []error
	for _, id := range ids {
		t, err := buildTenant(id, "_"+id, log)
		if err != nil {
			errs = append(errs, fmt.Errorf("tenant %s: %w", id, err))
			continue
		}
		reg.add(t)
	}
	if len(reg.byID) == 0 {
		return nil, fmt.Errorf("tenant: no tenant loaded successfully: %w", errors.Join(errs...))
	}
	for _, err := range errs {
		log.Warn().Err(err).Msg("tenant failed to load, skipping")
	}
	return reg, nil
}

func explicitIntegrations() []string {
	raw := envconf.String("INTEGRATIONS", "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, p)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, erri := strconv.Atoi(ids[i])
		nj, errj := strconv.Atoi(ids[j])
		if erri == nil && errj == nil {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func indexedIntegrations() []string {
	var ids []string
	for n := 1; n <= maxDiscoveryIndex; n++ {
		id := strconv.Itoa(n)
		for _, base := range discoveryBaseNames {
			if envconf.Has(envconf.Indexed(base, id)) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

func buildTenant(id, suffix string, log zerolog.Logger) (*Tenant, error) {
	webhookName := envconf.String("WEBHOOK_NAME"+suffix, "wpp-"+id)

	hdCfg := helpdesk.Config{
		BaseURL:        mustEnv("CHATWOOT_BASE_URL" + suffix),
		Token:          mustEnv("CHATWOOT_TOKEN" + suffix),
		AccountID:      mustEnv("CHATWOOT_ACCOUNT_ID" + suffix),
		InboxName:      envconf.String("CHATWOOT_INBOX_NAME"+suffix, webhookName),
		SidecarPath:    envconf.String("CHATWOOT_SIDECAR_PATH"+suffix, "./sidecar-"+id+".json"),
		ReopenResolved: envconf.Bool("REOPEN_RESOLVED"+suffix, true),
		InitialStatus:  envconf.String("CONVERSATION_STATUS"+suffix, "open"),
	}
	if hdCfg.BaseURL == "" || hdCfg.Token == "" || hdCfg.AccountID == "" {
		return nil, fmt.Errorf("missing required CHATWOOT_BASE_URL/CHATWOOT_TOKEN/CHATWOOT_ACCOUNT_ID for tenant %q", id)
	}

	dialect, providerClient, providerIdentifier, err := buildProvider(suffix, log)
	if err != nil {
		return nil, err
	}

	hd := helpdesk.New(hdCfg, log)
	if dialect == provider.DialectUAZAPI {
		hd.DownloadHook = downloadHookFor(providerClient)
	}

	return &Tenant{
		ID:                 id,
		WebhookName:        webhookName,
		DefaultCountry:     envconf.String("DEFAULT_COUNTRY"+suffix, "BR"),
		IgnoreGroups:       envconf.Bool("IGNORE_GROUPS"+suffix, false),
		ReopenResolved:     hdCfg.ReopenResolved,
		SignAgentMessages:  envconf.Bool("SIGN_AGENT_MESSAGES"+suffix, false),
		AgentSignatureName: envconf.String("AGENT_SIGNATURE_NAME"+suffix, ""),
		ProviderDialect:    dialect,
		ProviderIdentifier: providerIdentifier,
		Helpdesk:           hd,
		Provider:           providerClient,
	}, nil
}

// buildProvider tries three recipes in order — UAZAPI (base URL, token,
// connected number), Z-API (instance, token, client token), Wuzapi
// (base URL, token) — and builds the first whose required keys are all
// set. No explicit dialect selector env var exists; the recipe itself
// is the auto-detection.
func buildProvider(suffix string, log zerolog.Logger) (provider.Dialect, provider.Client, string, error) {
	if baseURL, token, number := envconf.String("UAZAPI_BASE_URL"+suffix, ""), envconf.String("UAZAPI_TOKEN"+suffix, ""), envconf.String("UAZAPI_NUMBER"+suffix, ""); baseURL != "" && token != "" && number != "" {
		client := provider.NewUAZAPI(provider.UAZAPIConfig{BaseURL: baseURL, Token: token, Number: number}, log)
		return provider.DialectUAZAPI, client, normalize.OnlyDigits(number), nil
	}
	if instanceID, token, clientToken := envconf.String("ZAPI_INSTANCE_ID"+suffix, ""), envconf.String("ZAPI_TOKEN"+suffix, ""), envconf.String("ZAPI_CLIENT_TOKEN"+suffix, ""); instanceID != "" && token != "" && clientToken != "" {
		client := provider.NewZAPI(provider.ZAPIConfig{
			BaseURL:     envconf.String("ZAPI_BASE_URL"+suffix, "https://api.z-api.io"),
			InstanceID:  instanceID,
			Token:       token,
			ClientToken: clientToken,
		}, log)
		return provider.DialectZAPI, client, instanceID, nil
	}
	if baseURL, token := envconf.String("WUZAPI_BASE_URL"+suffix, ""), envconf.String("WUZAPI_TOKEN"+suffix, ""); baseURL != "" && token != "" {
		client := provider.NewWuzapi(provider.WuzapiConfig{BaseURL: baseURL, Token: token}, log)
		return provider.DialectWuzapi, client, baseURL, nil
	}
	return "", nil, "", fmt.Errorf("no provider recipe fully keyed: need UAZAPI_BASE_URL/UAZAPI_TOKEN/UAZAPI_NUMBER, ZAPI_INSTANCE_ID/ZAPI_TOKEN/ZAPI_CLIENT_TOKEN, or WUZAPI_BASE_URL/WUZAPI_TOKEN (suffix %q)", suffix)
}

// downloadHookFor adapts a provider.Client's Download method to the
// helpdesk.DownloadHook signature, used only for dialects (UAZAPI) that
// require a follow-up fetch for media bytes.
func downloadHookFor(p provider.Client) helpdesk.DownloadHook {
	return func(ctx context.Context, providerMsgID string) ([]byte, string, error) {
		return p.Download(ctx, providerMsgID)
	}
}

func mustEnv(key string) string {
	return envconf.String(key, "")
}
