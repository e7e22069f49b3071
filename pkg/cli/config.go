/*
Package cli facilitates building command-line applications that talk to the Bluelink
backend. It defines a [Config] type that registers common command-line flags (using the
Golang flag package) and environment-variable equivalents.

The package uses [keyring]'s platform-agnostic interface for storing the account
password and PIN in an OS-dependent credential store, so they do not need to live in
shell history or plaintext environment files.

# Examples

	config, err := cli.NewConfig()
	if err != nil {
		panic(err)
	}
	config.RegisterCommandLineFlags() // Adds flags for VIN, region, brand, etc.
	flag.Parse()
	config.ReadFromEnvironment() // Fills in missing fields using environment variables
	if err := config.LoadCredentials(); err != nil { // Keyring fallback for password/PIN
		panic(err)
	}

	vm, err := config.Manager() // Construct the vehicle manager
*/
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/99designs/keyring"

	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
	"github.com/bluelink-community/vehicle-connect/pkg/cache"
	"github.com/bluelink-community/vehicle-connect/pkg/manager"
)

// Environment variable names read by [Config.ReadFromEnvironment].
const (
	EnvUsername     = "BLUELINK_USERNAME"
	EnvPassword     = "BLUELINK_PASSWORD"
	EnvPIN          = "BLUELINK_PIN"
	EnvVIN          = "BLUELINK_VIN"
	EnvRegion       = "BLUELINK_REGION"
	EnvBrand        = "BLUELINK_BRAND"
	EnvCacheFile    = "BLUELINK_CACHE_FILE"
	EnvKeyringType  = "BLUELINK_KEYRING_TYPE"
	EnvKeyringPass  = "BLUELINK_KEYRING_PASSWORD"
	EnvKeyringPath  = "BLUELINK_KEYRING_PATH"
	EnvKeyringDebug = "BLUELINK_KEYRING_DEBUG"
)

// Default region and brand ids: Europe / Hyundai.
const (
	DefaultRegionID = int(bluelink.RegionEurope)
	DefaultBrandID  = int(bluelink.BrandHyundai)
)

var ErrMissingCredentials = errors.New("username, password and VIN must be configured")

// Config fields determine how a client authenticates to the Bluelink backend and which
// vehicle it operates on.
type Config struct {
	Username      string
	Password      string
	PIN           string
	VIN           string
	RegionID      int
	BrandID       int
	CacheFilename string
	Backend       keyring.Config
	BackendType   backendType
	KeyringDebug  bool

	password *string // keyring unlock password, cached between prompts
}

// NewConfig creates a Config with keyring defaults applied.
func NewConfig() (*Config, error) {
	config := &Config{
		RegionID: DefaultRegionID,
		BrandID:  DefaultBrandID,
		Backend: keyring.Config{
			ServiceName:              keyringServiceName,
			KeychainTrustApplication: true,
			FileDir:                  keyringDirectory,
		},
	}
	config.BackendType.config = config
	config.Backend.FilePasswordFunc = config.getPassword
	config.Backend.KeychainPasswordFunc = config.getPassword
	return config, nil
}

// RegisterCommandLineFlags adds command-line flags for the Config's fields. Flags take
// precedence over environment variables.
func (c *Config) RegisterCommandLineFlags() {
	flag.StringVar(&c.Username, "username", "", "Bluelink account `email`")
	flag.StringVar(&c.VIN, "vin", "", "Vehicle Identification `Number`")
	flag.IntVar(&c.RegionID, "region", DefaultRegionID, "Region `id` (1 = Europe)")
	flag.IntVar(&c.BrandID, "brand", DefaultBrandID, "Brand `id` (1 = Kia, 2 = Hyundai, 3 = Genesis)")
	flag.StringVar(&c.CacheFilename, "cache-file", "", "Status cache `file`")
	flag.Var(&c.BackendType, "keyring-type", "Keyring `type` ("+supportedKeyringTypes()+")")
	flag.BoolVar(&c.KeyringDebug, "keyring-debug", false, "Enable keyring debug logging")
	// The password and PIN deliberately have no flags; use the environment or the
	// keyring so they don't end up in shell history.
}

// ReadFromEnvironment populates fields that were not already set on the command line.
func (c *Config) ReadFromEnvironment() error {
	if c.Username == "" {
		c.Username = os.Getenv(EnvUsername)
	}
	if c.Password == "" {
		c.Password = os.Getenv(EnvPassword)
	}
	if c.PIN == "" {
		c.PIN = os.Getenv(EnvPIN)
	}
	if c.VIN == "" {
		c.VIN = os.Getenv(EnvVIN)
	}
	if c.CacheFilename == "" {
		c.CacheFilename = os.Getenv(EnvCacheFile)
	}
	if c.RegionID == DefaultRegionID {
		if value, ok := os.LookupEnv(EnvRegion); ok {
			id, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid %s: %s", EnvRegion, value)
			}
			c.RegionID = id
		}
	}
	if c.BrandID == DefaultBrandID {
		if value, ok := os.LookupEnv(EnvBrand); ok {
			id, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid %s: %s", EnvBrand, value)
			}
			c.BrandID = id
		}
	}
	if !c.KeyringDebug {
		if value, ok := os.LookupEnv(EnvKeyringDebug); ok {
			c.KeyringDebug = value != "false" && value != "0"
		}
	}
	if value, ok := os.LookupEnv(EnvKeyringPath); ok {
		c.Backend.FileDir = value
	}
	if value, ok := os.LookupEnv(EnvKeyringType); ok {
		if err := c.BackendType.Set(value); err != nil {
			return err
		}
	}
	return nil
}

// LoadCredentials fills in the password and PIN from the system keyring when they were
// not provided by flags or the environment, then verifies the required fields are set.
func (c *Config) LoadCredentials() error {
	if c.Password == "" {
		password, err := c.loadSecret(keyringPasswordService)
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return err
		}
		c.Password = password
	}
	if c.PIN == "" {
		pin, err := c.loadSecret(keyringPINService)
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return err
		}
		c.PIN = pin
	}
	if c.Username == "" || c.Password == "" || c.VIN == "" {
		return ErrMissingCredentials
	}
	return nil
}

// SaveCredentials writes the configured password and PIN to the system keyring.
func (c *Config) SaveCredentials() error {
	if c.Password != "" {
		if err := c.storeSecret(keyringPasswordService, c.Password); err != nil {
			return err
		}
	}
	if c.PIN != "" {
		if err := c.storeSecret(keyringPINService, c.PIN); err != nil {
			return err
		}
	}
	return nil
}

// Account constructs a bluelink.Account from the Config.
func (c *Config) Account() (*bluelink.Account, error) {
	region, err := bluelink.RegionFromID(c.RegionID)
	if err != nil {
		return nil, err
	}
	brand, err := bluelink.BrandFromID(c.BrandID)
	if err != nil {
		return nil, err
	}
	return bluelink.New(c.Username, c.Password, c.PIN, region, brand)
}

// Manager constructs a vehicle manager, importing the status cache file when one is
// configured and present.
func (c *Config) Manager() (*manager.Manager, error) {
	account, err := c.Account()
	if err != nil {
		return nil, err
	}
	var statuses *cache.StatusCache
	if c.CacheFilename != "" {
		statuses, err = cache.ImportFromFile(c.CacheFilename)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unable to import status cache: %w", err)
		}
	}
	return manager.New(account, statuses), nil
}

// SaveCache exports the manager's status cache to the configured file.
func (c *Config) SaveCache(vm *manager.Manager) error {
	if c.CacheFilename == "" {
		return nil
	}
	return vm.StatusCache().ExportToFile(c.CacheFilename)
}
