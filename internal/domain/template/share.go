package template

import "time"

// ShareLink grants read access to a single template, typically a private
// one, until it expires. The token is the bearer capability.
type ShareLink struct {
	token      string
	templateID string
	createdAt  time.Time
	expiresAt  time.Time
}

// NewShareLink creates a share link valid for ttl from now.
func NewShareLink(token, templateID string, now time.Time, ttl time.Duration) ShareLink {
	return ShareLink{
		token:      token,
		templateID: templateID,
		createdAt:  now.UTC(),
		expiresAt:  now.UTC().Add(ttl),
	}
}

// ReconstructShareLink creates a ShareLink from storage without validation.
func ReconstructShareLink(token, templateID string, createdAt, expiresAt time.Time) ShareLink {
	return ShareLink{token: token, templateID: templateID, createdAt: createdAt, expiresAt: expiresAt}
}

// Token returns the opaque share token.
func (l *ShareLink) Token() string { return l.token }

// TemplateID returns the template the link grants access to.
func (l *ShareLink) TemplateID() string { return l.templateID }

// CreatedAt returns the creation timestamp (UTC).
func (l *ShareLink) CreatedAt() time.Time { return l.createdAt }

// ExpiresAt returns the expiry timestamp (UTC).
func (l *ShareLink) ExpiresAt() time.Time { return l.expiresAt }

// Expired reports whether the link has expired as of now.
func (l *ShareLink) Expired(now time.Time) bool {
	return now.After(l.expiresAt)
}

// Grants reports whether the link grants access to templateID as of now.
func (l *ShareLink) Grants(templateID string, now time.Time) bool {
	return l.templateID == templateID && !l.Expired(now)
}
