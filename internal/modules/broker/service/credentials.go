package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
)

type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
}

// CredentialResolver разворачивает CredentialsRef брокера:
//
//	env:PREFIX          PREFIX_API_KEY, PREFIX_API_SECRET, PREFIX_PASSPHRASE
//	vault:path          KV v2 секрет mount/data/path с полями api_key, api_secret, passphrase
//	пусто               пустые креды (sim, paper)
type CredentialResolver struct {
	vault *vault.Client
	mount string

	mu    sync.RWMutex
	cache map[string]Credentials
}

type VaultConfig struct {
	Addr  string
	Token string
	Mount string
}

func NewCredentialResolver(cfg VaultConfig) (*CredentialResolver, error) {
	r := &CredentialResolver{
		mount: cfg.Mount,
		cache: make(map[string]Credentials),
	}
	if r.mount == "" {
		r.mount = "secret"
	}
	if cfg.Addr == "" {
		return r, nil
	}

	vc := vault.DefaultConfig()
	vc.Address = cfg.Addr
	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	r.vault = client
	return r, nil
}

func (r *CredentialResolver) Resolve(ctx context.Context, ref string) (Credentials, error) {
	if ref == "" {
		return Credentials{}, nil
	}

	r.mu.RLock()
	if c, ok := r.cache[ref]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	scheme, rest, ok := strings.Cut(ref, ":")
	if !ok || rest == "" {
		return Credentials{}, fmt.Errorf("bad credentials ref %q", ref)
	}

	var (
		c   Credentials
		err error
	)
	switch scheme {
	case "env":
		c, err = fromEnv(rest)
	case "vault":
		c, err = r.fromVault(ctx, rest)
	default:
		return Credentials{}, fmt.Errorf("unknown credentials scheme %q", scheme)
	}
	if err != nil {
		return Credentials{}, err
	}

	r.mu.Lock()
	r.cache[ref] = c
	r.mu.Unlock()
	return c, nil
}

func fromEnv(prefix string) (Credentials, error) {
	c := Credentials{
		APIKey:     os.Getenv(prefix + "_API_KEY"),
		APISecret:  os.Getenv(prefix + "_API_SECRET"),
		Passphrase: os.Getenv(prefix + "_PASSPHRASE"),
	}
	if c.APIKey == "" {
		// одиночная переменная с ключом
		c.APIKey = os.Getenv(prefix)
	}
	if c.APIKey == "" {
		return Credentials{}, fmt.Errorf("env %s_API_KEY is empty", prefix)
	}
	return c, nil
}

func (r *CredentialResolver) fromVault(ctx context.Context, path string) (Credentials, error) {
	if r.vault == nil {
		return Credentials{}, errors.New("vault is not configured")
	}

	secret, err := r.vault.Logical().ReadWithContext(ctx, r.mount+"/data/"+path)
	if err != nil {
		return Credentials{}, errors.Wrapf(err, "read vault secret %s", path)
	}
	if secret == nil || secret.Data == nil {
		return Credentials{}, fmt.Errorf("vault secret %s not found", path)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return Credentials{}, fmt.Errorf("vault secret %s: invalid format", path)
	}

	c := Credentials{
		APIKey:     getString(data, "api_key"),
		APISecret:  getString(data, "api_secret"),
		Passphrase: getString(data, "passphrase"),
	}
	if c.APIKey == "" {
		return Credentials{}, fmt.Errorf("vault secret %s: api_key is empty", path)
	}
	return c, nil
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
