package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/openrdap/rdap"

	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/ratelimit"
)

const (
	domainID          = "domain"
	defaultRDAPServer = "https://rdap.verisign.com/com/v1"
)

// Domain probes RDAP for <name>.com registration. A registered domain
// is only a weak corroborating signal that the name is in use, so the
// default reliability is low (0.6).
type Domain struct {
	Client  *rdap.Client
	Limiter *ratelimit.RateLimiter
	Server  string
	Weight  float64
	Timeout time.Duration
	Clock   func() time.Time
}

// ID returns the source identifier.
func (d *Domain) ID() string {
	return domainID
}

// Reliability returns the static evidence weight.
func (d *Domain) Reliability() float64 {
	if d.Weight > 0 {
		return d.Weight
	}
	return 0.6
}

// Verify checks whether <name>.com is registered.
func (d *Domain) Verify(ctx context.Context, name string, nameType core.NameType) (*core.PlatformEvidence, error) {
	started := d.now()

	domainName := core.CanonicalName(name) + ".com"
	if core.CanonicalName(name) == "" {
		return failedEvidence(domainID, d.Reliability(), core.InvalidInputError("name has no usable characters"), started), nil
	}

	serverBase := d.Server
	if serverBase == "" {
		serverBase = defaultRDAPServer
	}

	serverURL, err := url.Parse(serverBase)
	if err != nil {
		return failedEvidence(domainID, d.Reliability(),
			core.NewVerifyError(core.ErrUnknown, domainID, fmt.Sprintf("invalid rdap server url: %v", err)), started), nil
	}
	endpoint := serverURL.Hostname()

	if d.Limiter != nil && endpoint != "" {
		allowed, wait, lerr := d.Limiter.Allow(ctx, endpoint)
		if lerr == nil && !allowed {
			verr := core.RateLimitedError(domainID, fmt.Sprintf("rate limited, retry in %s", wait.Round(time.Second)))
			return failedEvidence(domainID, d.Reliability(), verr, started), nil
		}
		_ = d.Limiter.Record(ctx, endpoint)
	}

	client := d.Client
	if client == nil {
		client = &rdap.Client{}
	}

	req := rdap.NewDomainRequest(domainName).WithServer(serverURL)
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	req.Timeout = timeout
	req = req.WithContext(ctx)

	resp, reqErr := client.Do(req)
	if reqErr != nil {
		if rdapNotFound(reqErr) {
			// Unregistered domain: no evidence of the name being in use.
			return buildEvidence(domainID, d.Reliability(), name, nil, 0, started), nil
		}
		verr := core.NewVerifyError(core.ErrPlatformError, domainID, reqErr.Error())
		if strings.Contains(strings.ToLower(reqErr.Error()), "timeout") {
			verr = core.TimeoutError(domainID)
		}
		return failedEvidence(domainID, d.Reliability(), verr, started), nil
	}

	if _, ok := resp.Object.(*rdap.Domain); ok {
		raws := []rawMatch{{name: name}}
		return buildEvidence(domainID, d.Reliability(), name, raws, 1, started), nil
	}

	return buildEvidence(domainID, d.Reliability(), name, nil, 0, started), nil
}

func (d *Domain) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}

func rdapNotFound(err error) bool {
	if err == nil {
		return false
	}

	clientErr, ok := err.(*rdap.ClientError)
	if !ok {
		return false
	}

	return clientErr.Type == rdap.ObjectDoesNotExist
}
