package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		App:  AppConfig{Env: "local", Port: 8080, PublicBaseURL: "https://amd.example.com"},
		Auth: AuthConfig{JWTSecret: "secret"},
		Twilio: TwilioConfig{
			AccountSID: "AC123",
			AuthToken:  "token",
			FromNumber: "+15550000000",
		},
		Dialer: DialerConfig{MaxConcurrentCalls: 10, DefaultCountryCode: "+1"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_MinimalLocal(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_ProductionRequiresDB(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "amd-dialer"
	c.Auth.JWTAudience = "amd-api"
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_HOST") {
		t.Fatalf("expected DB_HOST error, got %v", err)
	}
}

func TestValidate_PartialTelnyxRejected(t *testing.T) {
	c := validConfig()
	c.Telnyx.APIKey = "key"
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "TELNYX") {
		t.Fatalf("expected telnyx error, got %v", err)
	}

	c.Telnyx.ConnectionID = "conn"
	c.Telnyx.FromNumber = "+15551110000"
	if err := c.Validate(); err != nil {
		t.Fatalf("full telnyx config must validate: %v", err)
	}
}

func TestValidate_PublicBaseURL(t *testing.T) {
	c := validConfig()
	c.App.PublicBaseURL = "amd.example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for scheme-less base url")
	}
}
