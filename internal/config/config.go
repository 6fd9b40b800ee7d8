// Package config loads Azure storage access settings and constructs the
// service clients the rest of the program uses.
//
// The contract matches the original tooling around this library: the
// connection string lives in a .env file (or the process environment) under
// a configurable variable name, and the account name and key needed for the
// table service endpoint are parsed out of it.
package config

import (
	"fmt"
	nethttp "net/http"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/joho/godotenv"

	"github.com/eazure-dev/eazure/internal/httpx"
)

// DefaultEnvVar is the environment variable holding the storage connection
// string when the caller does not name one.
const DefaultEnvVar = "AZURE_STORAGE_CONNECTION_STRING"

// AccountEnvVar names the storage account when authenticating with
// DefaultAzureCredential, where no connection string exists to parse the
// account name from.
const AccountEnvVar = "AZURE_STORAGE_ACCOUNT"

const defaultEndpointSuffix = "core.windows.net"

// Settings holds everything needed to reach one storage account.
type Settings struct {
	// ConnectionString is the full account connection string. When set it is
	// the preferred authentication method for both services.
	ConnectionString string

	// AccountName and AccountKey are parsed from the connection string (or
	// set directly) and used for shared-key authentication.
	AccountName string
	AccountKey  string

	// EndpointSuffix overrides the default core.windows.net endpoints
	// (sovereign clouds, Azurite).
	EndpointSuffix string

	// UseDefaultCredential switches to DefaultAzureCredential (managed
	// identity, workload identity, az login) instead of keys. AccountName
	// must still be set so endpoints can be built.
	UseDefaultCredential bool

	// RetryMax caps transport-level retries. Negative means the default.
	RetryMax int

	httpClient *nethttp.Client
}

// Load reads a .env file if one is present, then builds Settings from the
// named environment variable (DefaultEnvVar if empty). With
// useDefaultCredential the connection string is optional: the account name
// is then taken from AccountEnvVar (or from the connection string when both
// are set) and DefaultAzureCredential handles authentication.
func Load(envVar string, useDefaultCredential bool) (*Settings, error) {
	// A missing .env file is fine; the variables may live in the real
	// environment.
	_ = godotenv.Load()

	if envVar == "" {
		envVar = DefaultEnvVar
	}
	conn := os.Getenv(envVar)
	s := &Settings{
		ConnectionString:     conn,
		UseDefaultCredential: useDefaultCredential,
		RetryMax:             -1,
	}
	if conn == "" {
		if !useDefaultCredential {
			return nil, fmt.Errorf("connection string not found in environment variable %s", envVar)
		}
		s.AccountName = os.Getenv(AccountEnvVar)
		if s.AccountName == "" {
			return nil, fmt.Errorf("account name not found in environment variable %s", AccountEnvVar)
		}
		return s, nil
	}
	parts := parseConnectionString(conn)
	s.AccountName = parts["AccountName"]
	s.AccountKey = parts["AccountKey"]
	if suffix := parts["EndpointSuffix"]; suffix != "" {
		s.EndpointSuffix = suffix
	}
	return s, nil
}

// parseConnectionString splits "Key=Value;Key=Value" pairs; values may
// themselves contain '=' (base64 keys), so only the first '=' splits.
func parseConnectionString(conn string) map[string]string {
	parts := make(map[string]string)
	for _, item := range strings.Split(conn, ";") {
		k, v, ok := strings.Cut(item, "=")
		if ok {
			parts[strings.TrimSpace(k)] = v
		}
	}
	return parts
}

func (s *Settings) suffix() string {
	if s.EndpointSuffix != "" {
		return s.EndpointSuffix
	}
	return defaultEndpointSuffix
}

// BlobEndpoint returns the blob service URL for the account.
func (s *Settings) BlobEndpoint() string {
	return fmt.Sprintf("https://%s.blob.%s/", s.AccountName, s.suffix())
}

// TableEndpoint returns the table service URL for the account.
func (s *Settings) TableEndpoint() string {
	return fmt.Sprintf("https://%s.table.%s/", s.AccountName, s.suffix())
}

// transport returns the shared pooled HTTP client, creating it on first use
// so blob and table clients reuse one connection pool.
func (s *Settings) transport() *nethttp.Client {
	if s.httpClient == nil {
		s.httpClient = httpx.NewPooledClient(s.RetryMax)
	}
	return s.httpClient
}

// BlobClient builds the blob service client, preferring the connection
// string, then shared-key, then DefaultAzureCredential.
func (s *Settings) BlobClient() (*azblob.Client, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{Transport: s.transport()},
	}
	switch {
	case s.UseDefaultCredential:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("create azure credential: %w", err)
		}
		return azblob.NewClient(s.BlobEndpoint(), cred, opts)
	case s.ConnectionString != "":
		return azblob.NewClientFromConnectionString(s.ConnectionString, opts)
	case s.AccountName != "" && s.AccountKey != "":
		cred, err := azblob.NewSharedKeyCredential(s.AccountName, s.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		return azblob.NewClientWithSharedKeyCredential(s.BlobEndpoint(), cred, opts)
	default:
		return nil, fmt.Errorf("no blob authentication method configured")
	}
}

// TableService builds the table service client with the same authentication
// ladder as BlobClient.
func (s *Settings) TableService() (*aztables.ServiceClient, error) {
	opts := &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{Transport: s.transport()},
	}
	switch {
	case s.UseDefaultCredential:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("create azure credential: %w", err)
		}
		return aztables.NewServiceClient(s.TableEndpoint(), cred, opts)
	case s.ConnectionString != "":
		return aztables.NewServiceClientFromConnectionString(s.ConnectionString, opts)
	case s.AccountName != "" && s.AccountKey != "":
		cred, err := aztables.NewSharedKeyCredential(s.AccountName, s.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		return aztables.NewServiceClientWithSharedKey(s.TableEndpoint(), cred, opts)
	default:
		return nil, fmt.Errorf("no table authentication method configured")
	}
}
