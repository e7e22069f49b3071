package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"golang.org/x/term"
)

const (
	keyringServiceName     = "com.bluelink.connect"
	keyringPasswordService = "accountPassword"
	keyringPINService      = "accountPIN"
	keyringDirectory       = "~/.bluelink_keys"
)

type backendType struct {
	config *Config
}

func (b backendType) String() string {
	if b.config == nil || len(b.config.Backend.AllowedBackends) == 0 {
		return string(keyring.InvalidBackend)
	}
	return string(b.config.Backend.AllowedBackends[0])
}

func (b backendType) Set(v string) error {
	value := keyring.BackendType(v)
	if b.config == nil {
		return fmt.Errorf("invalid backendType")
	}
	if v == "" {
		return nil
	}
	for _, name := range keyring.AvailableBackends() {
		if name == value {
			b.config.Backend.AllowedBackends = []keyring.BackendType{name}
			return nil
		}
	}
	return fmt.Errorf("unsupported credential storage")
}

func supportedKeyringTypes() string {
	var names []string
	for _, name := range keyring.AvailableBackends() {
		names = append(names, string(name))
	}
	return strings.Join(names, ", ")
}

// getPassword prompts for the keyring unlock password. The BLUELINK_KEYRING_PASSWORD
// environment variable bypasses the prompt for non-interactive use.
func (c *Config) getPassword(prompt string) (string, error) {
	if c.password != nil && *c.password != "" {
		return *c.password, nil
	}
	if fromEnv, ok := os.LookupEnv(EnvKeyringPass); ok {
		c.password = &fromEnv
		return fromEnv, nil
	}

	var w io.Writer
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fd = int(os.Stderr.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("no terminal output available for password prompt")
		}
		w = os.Stderr
	} else {
		w = os.Stdout
	}

	fmt.Fprintf(w, "%s: ", prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	password := string(b)
	c.password = &password
	return password, nil
}

func (c *Config) openKeyring() (keyring.Keyring, error) {
	if c.KeyringDebug {
		keyring.Debug = true
	}
	return keyring.Open(c.Backend)
}

func (c *Config) loadSecret(service string) (string, error) {
	kr, err := c.openKeyring()
	if err != nil {
		return "", fmt.Errorf("unable to open keyring: %w", err)
	}
	item, err := kr.Get(service)
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

func (c *Config) storeSecret(service, secret string) error {
	kr, err := c.openKeyring()
	if err != nil {
		return fmt.Errorf("unable to open keyring: %w", err)
	}
	return kr.Set(keyring.Item{
		Key:         service,
		Data:        []byte(secret),
		Label:       keyringServiceName + "/" + service,
		Description: "Bluelink account credential",
	})
}
