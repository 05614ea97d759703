package legifrance

import (
	"time"

	"github.com/fwojciec/catleg"
	"github.com/google/uuid"
)

// Defaults for the PISTE gateway and its fair-use limits.
const (
	DefaultAPIURL            = "https://api.piste.gouv.fr/dila/legifrance/lf-engine-app"
	DefaultTokenURL          = "https://oauth.piste.gouv.fr/api/oauth/token"
	DefaultMaxConcurrency    = 10
	DefaultRequestsPerSecond = 15
	DefaultTimeout           = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	ClientID     string
	ClientSecret string

	APIURL   string
	TokenURL string

	// MaxConcurrency caps in-flight requests of batch fetches.
	MaxConcurrency int

	// RequestsPerSecond caps the request rate of the client.
	RequestsPerSecond float64

	// Timeout of each HTTP request.
	Timeout time.Duration
}

// WithDefaults returns a copy of c with zero fields set to their default.
func (c Config) WithDefaults() Config {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate reports missing credentials. PISTE credentials are UUIDs; any
// other value is treated as missing.
func (c Config) Validate() error {
	if !ValidCredential(c.ClientID) || !ValidCredential(c.ClientSecret) {
		return catleg.Errorf(catleg.EINVALID, "please supply Legifrance credentials (in .catleg_secrets.yaml or the CATLEG_LF_CLIENT_ID and CATLEG_LF_CLIENT_SECRET environment variables)")
	}
	return nil
}

// ValidCredential reports whether s has the shape of a PISTE credential.
func ValidCredential(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
