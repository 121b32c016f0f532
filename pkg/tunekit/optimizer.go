package tunekit

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultBaseURL is the optimizer API endpoint used when no override is
// configured.
const DefaultBaseURL = "https://api.tunekit.io/"

// Optimizer identity constraints. The organization is a DNS-style
// domain; the application name is lowercase alphanumerics, hyphens, and
// periods, 3 to 64 characters.
var (
	orgDomainPattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
	appNamePattern   = regexp.MustCompile(`^[a-z0-9.-]{3,64}$`)
)

// Optimizer identifies the remote optimization service backend an agent
// reports to: an organization domain, an application under it, and the
// API token that authenticates the agent.
type Optimizer struct {
	// OrgDomain is the organization's domain, e.g. "example.com".
	OrgDomain string
	// AppName is the application under the organization, e.g. "shop".
	AppName string
	// Token authenticates against the optimizer API. Never logged.
	Token string
	// BaseURL is the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string
}

// OptimizerOption configures an optimizer descriptor.
type OptimizerOption func(*Optimizer)

// WithBaseURL overrides the default API endpoint, e.g. to target a
// staging deployment.
func WithBaseURL(url string) OptimizerOption {
	return func(o *Optimizer) {
		o.BaseURL = url
	}
}

// NewOptimizer builds an optimizer descriptor from its combined
// identifier "org.domain/app-name" and API token.
func NewOptimizer(id, token string, opts ...OptimizerOption) (*Optimizer, error) {
	org, app, ok := strings.Cut(id, "/")
	if !ok {
		return nil, fmt.Errorf("tunekit: invalid optimizer ID %q: expected format \"example.com/app-name\"", id)
	}
	o := &Optimizer{
		OrgDomain: org,
		AppName:   app,
		Token:     token,
		BaseURL:   DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(o)
	}
	if !orgDomainPattern.MatchString(o.OrgDomain) {
		return nil, fmt.Errorf("tunekit: invalid optimizer organization %q: must be a valid domain name", o.OrgDomain)
	}
	if !appNamePattern.MatchString(o.AppName) {
		return nil, fmt.Errorf("tunekit: invalid optimizer application %q: must be 3-64 characters of lowercase alphanumerics, hyphens, and periods", o.AppName)
	}
	if o.Token == "" {
		return nil, fmt.Errorf("tunekit: optimizer token is required")
	}
	return o, nil
}

// ID returns the combined identifier, "org.domain/app-name".
func (o *Optimizer) ID() string {
	return o.OrgDomain + "/" + o.AppName
}

// APIURL returns the base URL for this application's API resources.
func (o *Optimizer) APIURL() string {
	base := o.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%saccounts/%s/applications/%s/", base, o.OrgDomain, o.AppName)
}

// String implements fmt.Stringer. The token is never included.
func (o *Optimizer) String() string {
	return o.ID()
}
