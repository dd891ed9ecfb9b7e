package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.HTTPServer.Port = 8080
	cfg.HTTPServer.MaxHeaderBytes = 1 << 20
	cfg.HTTPServer.Timeout.Read = 15 * time.Second
	cfg.HTTPServer.Timeout.Write = 15 * time.Second
	cfg.HTTPServer.Timeout.Idle = 60 * time.Second
	cfg.HTTPServer.Timeout.ReadHeader = 5 * time.Second
	cfg.Log.Level = "info"
	cfg.Ledger.File = "stock.json"
	cfg.Receipt.StoreName = "VAZHGA VALAMUDAN STORES"
	cfg.Receipt.Dir = "receipts"
	cfg.Receipt.Preset = "classic"
	cfg.Shutdown.Timeout = 10 * time.Second
	return cfg
}

func Test_Config_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(cfg *Config)
		expectErr bool
	}{
		{name: "Success - valid config", mutate: func(*Config) {}},
		{name: "Success - compact preset", mutate: func(cfg *Config) { cfg.Receipt.Preset = "compact" }},
		{name: "Success - surcharge enabled", mutate: func(cfg *Config) { cfg.Receipt.SurchargeBp = 500 }},
		{name: "Error - port out of range", mutate: func(cfg *Config) { cfg.HTTPServer.Port = 70000 }, expectErr: true},
		{name: "Error - zero read timeout", mutate: func(cfg *Config) { cfg.HTTPServer.Timeout.Read = 0 }, expectErr: true},
		{name: "Error - missing ledger file", mutate: func(cfg *Config) { cfg.Ledger.File = "" }, expectErr: true},
		{name: "Error - missing store name", mutate: func(cfg *Config) { cfg.Receipt.StoreName = "" }, expectErr: true},
		{name: "Error - missing receipt dir", mutate: func(cfg *Config) { cfg.Receipt.Dir = "" }, expectErr: true},
		{name: "Error - unknown preset", mutate: func(cfg *Config) { cfg.Receipt.Preset = "thermal" }, expectErr: true},
		{name: "Error - negative surcharge", mutate: func(cfg *Config) { cfg.Receipt.SurchargeBp = -1 }, expectErr: true},
		{name: "Error - zero shutdown timeout", mutate: func(cfg *Config) { cfg.Shutdown.Timeout = 0 }, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			cfg := validConfig()
			tc.mutate(cfg)
			// when
			err := cfg.Validate()
			// then
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_Config_String_ListsEveryKey(t *testing.T) {
	out := validConfig().String()
	for _, key := range []string{
		"server.port", "ledger.file", "receipt.storeName", "receipt.dir",
		"receipt.preset", "receipt.surchargeBp", "log.level", "shutdown.timeout",
	} {
		assert.Contains(t, out, key)
	}
}
