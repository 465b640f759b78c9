package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Supply modes: manual staging via sellMore only, or the standard vesting
// schedule on top of it.
const (
	SupplyModeManual  = "manual"
	SupplyModeVesting = "vesting"
)

// Config holds all runtime configuration for the sale service.
type Config struct {
	Port     int
	LogLevel string
	AppEnv   string

	SaleStart       time.Time
	PresaleDuration time.Duration
	SupplyMode      string

	Owner            common.Address
	Beneficiary      common.Address
	InvitationSigner common.Address

	AllocationInterval time.Duration
	WebhookTimeout     time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	appEnv := getStr("APP_ENV", "dev")
	if appEnv != "dev" && appEnv != "prod" {
		return nil, fmt.Errorf("invalid APP_ENV: %q, must be dev or prod", appEnv)
	}

	saleStart, err := getTime("SALE_START", time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("invalid SALE_START: %w", err)
	}

	presaleDuration, err := getDuration("PRESALE_DURATION", 48*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid PRESALE_DURATION: %w", err)
	}
	if presaleDuration < 0 {
		return nil, fmt.Errorf("invalid PRESALE_DURATION: must be non-negative")
	}

	supplyMode := getStr("SUPPLY_MODE", SupplyModeManual)
	if supplyMode != SupplyModeManual && supplyMode != SupplyModeVesting {
		return nil, fmt.Errorf("invalid SUPPLY_MODE: %q, must be manual or vesting", supplyMode)
	}

	owner, err := getAddress("OWNER")
	if err != nil {
		return nil, err
	}

	beneficiary, err := getAddressDefault("BENEFICIARY", owner)
	if err != nil {
		return nil, err
	}

	signer, err := getAddressDefault("INVITATION_SIGNER", common.Address{})
	if err != nil {
		return nil, err
	}

	allocationInterval, err := getDuration("ALLOCATION_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOCATION_INTERVAL: %w", err)
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:               port,
		LogLevel:           logLevel,
		AppEnv:             appEnv,
		SaleStart:          saleStart,
		PresaleDuration:    presaleDuration,
		SupplyMode:         supplyMode,
		Owner:              owner,
		Beneficiary:        beneficiary,
		InvitationSigner:   signer,
		AllocationInterval: allocationInterval,
		WebhookTimeout:     webhookTimeout,
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		IdleTimeout:        idleTimeout,
		ShutdownTimeout:    shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func getTime(key string, defaultVal time.Time) (time.Time, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.Parse(time.RFC3339, v)
}

// getAddress reads a required hex address.
func getAddress(key string) (common.Address, error) {
	v := os.Getenv(key)
	if v == "" {
		return common.Address{}, fmt.Errorf("%s is required", key)
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid %s: %q is not a hex address", key, v)
	}
	return common.HexToAddress(v), nil
}

// getAddressDefault reads an optional hex address.
func getAddressDefault(key string, defaultVal common.Address) (common.Address, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid %s: %q is not a hex address", key, v)
	}
	return common.HexToAddress(v), nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
