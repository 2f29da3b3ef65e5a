package tenant

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Env variable names the client resolves credentials from. A profile may
// redirect the account and token lookups to differently named variables so
// several tenants can coexist in one environment.
const (
	envEndpoint = "TENANTGRID_ENDPOINT"
	envAccount  = "TENANTGRID_ACCOUNT"
	envToken    = "TENANTGRID_TOKEN"
)

// Credentials identifies one tenant and authenticates against it.
// Credentials only ever come from the environment, never from blueprint
// files.
type Credentials struct {
	// Endpoint is the tenant API base URL, e.g. "https://acme.example.com".
	Endpoint string
	// Account is the tenant account identifier sent with every request.
	Account string
	// Token is the bearer token.
	Token string
}

// LoadEnvFile loads variables from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error when path is empty (the default); an explicitly
// named file must exist.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// CredentialsFromEnv resolves credentials from the environment, optionally
// redirected through a named profile.
func CredentialsFromEnv(profile *Profile) (Credentials, error) {
	endpointVar, accountVar, tokenVar := envEndpoint, envAccount, envToken
	var creds Credentials
	if profile != nil {
		creds.Endpoint = profile.Endpoint
		if profile.AccountEnv != "" {
			accountVar = profile.AccountEnv
		}
		if profile.TokenEnv != "" {
			tokenVar = profile.TokenEnv
		}
	}

	if creds.Endpoint == "" {
		creds.Endpoint = os.Getenv(endpointVar)
	}
	creds.Account = os.Getenv(accountVar)
	creds.Token = os.Getenv(tokenVar)

	if creds.Endpoint == "" {
		return Credentials{}, fmt.Errorf("tenant endpoint not configured: set %s or use a profile", endpointVar)
	}
	if creds.Account == "" {
		return Credentials{}, fmt.Errorf("tenant account not configured: set %s", accountVar)
	}
	if creds.Token == "" {
		return Credentials{}, fmt.Errorf("tenant token not configured: set %s", tokenVar)
	}
	return creds, nil
}
