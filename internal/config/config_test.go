package config

import (
	"testing"
)

const testConnString = "DefaultEndpointsProtocol=https;AccountName=acct;AccountKey=a2V5d2l0aGVxdWFscz09;EndpointSuffix=core.windows.net"

func TestParseConnectionString(t *testing.T) {
	parts := parseConnectionString(testConnString)

	if parts["AccountName"] != "acct" {
		t.Errorf("AccountName = %q, want acct", parts["AccountName"])
	}
	// Base64 keys contain '='; only the first '=' splits.
	if parts["AccountKey"] != "a2V5d2l0aGVxdWFscz09" {
		t.Errorf("AccountKey = %q", parts["AccountKey"])
	}
	if parts["EndpointSuffix"] != "core.windows.net" {
		t.Errorf("EndpointSuffix = %q", parts["EndpointSuffix"])
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EAZURE_TEST_CONN", testConnString)

	s, err := Load("EAZURE_TEST_CONN", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.AccountName != "acct" {
		t.Errorf("AccountName = %q, want acct", s.AccountName)
	}
	if s.AccountKey == "" {
		t.Error("AccountKey not parsed")
	}
}

func TestLoadMissingVariable(t *testing.T) {
	t.Setenv("EAZURE_TEST_MISSING", "")
	if _, err := Load("EAZURE_TEST_MISSING", false); err == nil {
		t.Error("expected error for missing variable")
	}
}

func TestLoadCredentialModeWithoutConnectionString(t *testing.T) {
	t.Setenv("EAZURE_TEST_MISSING", "")
	t.Setenv(AccountEnvVar, "acct")

	s, err := Load("EAZURE_TEST_MISSING", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.UseDefaultCredential {
		t.Error("UseDefaultCredential not set")
	}
	if s.AccountName != "acct" {
		t.Errorf("AccountName = %q, want acct", s.AccountName)
	}
	if got := s.TableEndpoint(); got != "https://acct.table.core.windows.net/" {
		t.Errorf("table endpoint = %q", got)
	}
}

func TestLoadCredentialModeNeedsAccountName(t *testing.T) {
	t.Setenv("EAZURE_TEST_MISSING", "")
	t.Setenv(AccountEnvVar, "")

	if _, err := Load("EAZURE_TEST_MISSING", true); err == nil {
		t.Error("expected error when neither connection string nor account name is set")
	}
}

func TestLoadCredentialModePrefersConnectionStringAccount(t *testing.T) {
	t.Setenv("EAZURE_TEST_CONN", testConnString)
	t.Setenv(AccountEnvVar, "other")

	s, err := Load("EAZURE_TEST_CONN", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.AccountName != "acct" {
		t.Errorf("AccountName = %q, want acct", s.AccountName)
	}
}

func TestEndpoints(t *testing.T) {
	s := &Settings{AccountName: "acct"}
	if got := s.BlobEndpoint(); got != "https://acct.blob.core.windows.net/" {
		t.Errorf("blob endpoint = %q", got)
	}
	if got := s.TableEndpoint(); got != "https://acct.table.core.windows.net/" {
		t.Errorf("table endpoint = %q", got)
	}

	s.EndpointSuffix = "core.chinacloudapi.cn"
	if got := s.TableEndpoint(); got != "https://acct.table.core.chinacloudapi.cn/" {
		t.Errorf("table endpoint with suffix = %q", got)
	}
}
