// Package config defines the typed configuration of the posd process.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/skarthikeyan/gopos/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer HTTPConfig     `koanf:"server"`
	Log        LogConfig      `koanf:"log"`
	Ledger     LedgerConfig   `koanf:"ledger"`
	Receipt    ReceiptConfig  `koanf:"receipt"`
	Shutdown   ShutdownConfig `koanf:"shutdown"`
}

type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// LedgerConfig locates the persisted stock file.
type LedgerConfig struct {
	File string `koanf:"file"`
}

// ReceiptConfig controls receipt rendering.
type ReceiptConfig struct {
	StoreName string `koanf:"storeName"`
	Dir       string `koanf:"dir"`
	Preset    string `koanf:"preset"`
	// SurchargeBp is a display-only flat surcharge in basis points
	// (500 = 5% GST). Zero disables the surcharge block.
	SurchargeBp int `koanf:"surchargeBp"`
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.maxHeaderBytes: %d\n", c.HTTPServer.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  server.timeout.idle: %v\n", c.HTTPServer.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  server.timeout.readHeader: %v\n", c.HTTPServer.Timeout.ReadHeader))

	b.WriteString("\n--- Ledger & Receipts ---\n")
	b.WriteString(fmt.Sprintf("  ledger.file: %s\n", c.Ledger.File))
	b.WriteString(fmt.Sprintf("  receipt.storeName: %s\n", c.Receipt.StoreName))
	b.WriteString(fmt.Sprintf("  receipt.dir: %s\n", c.Receipt.Dir))
	b.WriteString(fmt.Sprintf("  receipt.preset: %s\n", c.Receipt.Preset))
	b.WriteString(fmt.Sprintf("  receipt.surchargeBp: %d\n", c.Receipt.SurchargeBp))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(); err != nil {
		return err
	}
	if err := c.Receipt.Validate(); err != nil {
		return err
	}
	return c.Shutdown.Validate()
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

func (c *LedgerConfig) Validate() error {
	if c.File == "" {
		return fmt.Errorf("ledger file is not configured")
	}
	return nil
}

func (c *ReceiptConfig) Validate() error {
	if c.StoreName == "" {
		return fmt.Errorf("receipt store name is not configured")
	}
	if c.Dir == "" {
		return fmt.Errorf("receipt directory is not configured")
	}
	if c.Preset != "classic" && c.Preset != "compact" {
		return fmt.Errorf("invalid receipt preset: %q (must be classic or compact)", c.Preset)
	}
	if c.SurchargeBp < 0 {
		return fmt.Errorf("invalid surcharge: %d basis points", c.SurchargeBp)
	}
	return nil
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}
