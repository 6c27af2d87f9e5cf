package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetConfig() {
	cfg = AppConfig{}
	loaded = false
}

func TestDefaults(t *testing.T) {
	resetConfig()
	c := Load()

	require.Equal(t, "8080", c.AppPort)
	require.Equal(t, "accessStatus", c.ChainAccessMethod)
	require.Equal(t, int64(84532), c.ChainID)
	require.Equal(t, "https://api.pinata.cloud/pinning/pinFileToIPFS", c.PinataEndpoint)
	require.Equal(t, "https://gateway.pinata.cloud/ipfs", c.PinataGateway)
	require.Equal(t, []string{"*"}, c.AllowedOrigins)
	require.Equal(t, 60, c.RateLimitPerMinute)
	// credentials never default
	require.Empty(t, c.PinataJWT)
	require.Empty(t, c.ChainRPCURL)
	require.Empty(t, c.VaultContractAddress)
}

func TestEnvOverrides(t *testing.T) {
	resetConfig()
	t.Setenv("CHAIN_RPC_URL", "https://sepolia.base.org")
	t.Setenv("VAULT_CONTRACT_ADDRESS", "0x1111111111111111111111111111111111111111")
	t.Setenv("CHAIN_ACCESS_METHOD", "verifyPayment")
	t.Setenv("CHAIN_ID", "8453")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c := Load()
	require.Equal(t, "https://sepolia.base.org", c.ChainRPCURL)
	require.Equal(t, "0x1111111111111111111111111111111111111111", c.VaultContractAddress)
	require.Equal(t, "verifyPayment", c.ChainAccessMethod)
	require.Equal(t, int64(8453), c.ChainID)
	require.Equal(t, 5, c.RateLimitPerMinute)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestBaseRPCURLCompat(t *testing.T) {
	resetConfig()
	t.Setenv("BASE_RPC_URL", "https://mainnet.base.org")

	c := Load()
	require.Equal(t, "https://mainnet.base.org", c.ChainRPCURL)
}

func TestLoadJSONGroupedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9000", "RateLimitPerMinute": 10},
		"database": {"DBHost": "db.internal", "DBName": "vault"},
		"chain": {"RPCURL": "https://rpc.internal", "VaultContractAddress": "0x2222222222222222222222222222222222222222", "ChainID": 84532},
		"pinata": {"JWT": "secret-jwt"},
		"privy": {"AppID": "app-1"},
		"log": {"Level": "debug", "MaxSizeMB": 10}
	}`), 0o600))

	var out AppConfig
	require.NoError(t, loadJSONConfig(path, &out))
	require.Equal(t, "9000", out.AppPort)
	require.Equal(t, 10, out.RateLimitPerMinute)
	require.Equal(t, "db.internal", out.DBHost)
	require.Equal(t, "vault", out.DBName)
	require.Equal(t, "https://rpc.internal", out.ChainRPCURL)
	require.Equal(t, int64(84532), out.ChainID)
	require.Equal(t, "secret-jwt", out.PinataJWT)
	require.Equal(t, "app-1", out.PrivyAppID)
	require.Equal(t, "debug", out.LogLevel)
	require.Equal(t, 10, out.LogMaxSizeMB)
}

func TestLoadJSONMissingFileIsFine(t *testing.T) {
	var out AppConfig
	require.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "nope.json"), &out))
	require.Equal(t, AppConfig{}, out)
}

func TestLoadJSONInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	var out AppConfig
	require.Error(t, loadJSONConfig(path, &out))
}
