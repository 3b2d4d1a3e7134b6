package config

import "testing"

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "sparrow", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Voice: VoiceConfig{APIKey: "xi", AgentID: "agent"},
		LLM:   LLMConfig{GroqAPIKey: "gk", GeminiAPIKey: "gm"},
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "sparrow"
	c.Auth.JWTAudience = "api"
	c.Webhook.IdentitySecret = "whsec"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RequiresProviderKeys(t *testing.T) {
	c := validBase()
	c.LLM.GroqAPIKey = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing GROQ_API_KEY")
	}

	c = validBase()
	c.Voice.AgentID = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing ELEVENLABS_AGENT_ID")
	}
}
