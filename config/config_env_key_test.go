package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeEnvKey_MapsAuthOverrides(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"pubsub": map[string]any{
			"topicId": "",
		},
		"auth": map[string]any{
			"session": map[string]any{
				"cookieTTL":   "24h",
				"idleTimeout": "30m",
			},
			"token": map[string]any{
				"providerEndpoint": "",
			},
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "PUBSUB_TOPICID", want: "pubsub.topicId"},
		{envKey: "AUTH_SESSION_COOKIETTL", want: "auth.session.cookieTTL"},
		{envKey: "AUTH_TOKEN_PROVIDERENDPOINT", want: "auth.token.providerEndpoint"},
		{envKey: "AUTH_MODE", want: "auth.mode"},
		{envKey: "AUTH_SESSION_IDLETIMEOUT", want: "auth.session.idleTimeout"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, existing))
		})
	}
}
