package redis

import "strings"

const keyNamespace = "sh"

const (
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	cartPrefix        = "cart"
	cartLockPrefix    = "cart_lock"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return namespacedKey(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return namespacedKey(rateLimitPrefix, scope)
}

// CartKey namespaces a session cart by company so one session can browse many menus.
func (c *Client) CartKey(companyID, sessionID string) string {
	return namespacedKey(cartPrefix, companyID, sessionID)
}

// CartLockKey names the lease that serializes writes to one session cart.
func (c *Client) CartLockKey(companyID, sessionID string) string {
	return namespacedKey(cartLockPrefix, companyID, sessionID)
}

// namespacedKey joins the non-blank parts under the service namespace.
func namespacedKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
