package store

import (
	"fmt"
	"net/url"
	"strings"
)

// StoreType identifies the archive backend.
type StoreType string

const (
	// TypeFS indicates the local filesystem archive (the default).
	TypeFS StoreType = ""
	// TypeObject indicates an S3-compatible object store archive.
	TypeObject StoreType = "object"
	// TypeGit indicates a git repository archive.
	TypeGit StoreType = "git"
)

// FSStoreConfig captures configuration for the filesystem archive.
type FSStoreConfig struct {
	Dir string
}

// ObjectStoreConfig captures configuration for S3-compatible archives.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// GitStoreConfig captures configuration for git-backed archives.
type GitStoreConfig struct {
	RemoteURL string
	Username  string
	Password  string
	LocalPath string
}

// StoreConfig unifies configuration for all archive backends.
type StoreConfig struct {
	Type   StoreType
	FS     FSStoreConfig
	Object ObjectStoreConfig
	Git    GitStoreConfig
}

// LookupEnvFunc is a function that looks up environment variables.
// It accepts multiple keys and returns the first non-empty value found.
type LookupEnvFunc func(keys ...string) (string, bool)

// ParseFromEnv builds a StoreConfig from environment variables.
// The lookupEnv function is injected to avoid circular dependencies with the env package.
// writableBase provides the default local path when no explicit path is configured.
func ParseFromEnv(lookupEnv LookupEnvFunc, writableBase string) StoreConfig {
	cfg := StoreConfig{FS: FSStoreConfig{Dir: writableBase}}

	storeType, _ := lookupEnv("MUX_CONSOLE_STORE_TYPE")
	storeType = strings.ToLower(strings.TrimSpace(storeType))

	// Parse Git archive configuration
	if storeType == "git" {
		cfg.Type = TypeGit
	}
	if value, ok := lookupEnv("MUX_CONSOLE_GITSTORE_URL"); ok {
		cfg.Type = TypeGit
		cfg.Git.RemoteURL = value
	}
	if cfg.Type == TypeGit {
		if value, ok := lookupEnv("MUX_CONSOLE_GITSTORE_USERNAME"); ok {
			cfg.Git.Username = value
		}
		if value, ok := lookupEnv("MUX_CONSOLE_GITSTORE_TOKEN"); ok {
			cfg.Git.Password = value
		}
		if value, ok := lookupEnv("MUX_CONSOLE_GITSTORE_LOCAL_PATH"); ok {
			cfg.Git.LocalPath = value
		}
		if cfg.Git.LocalPath == "" && writableBase != "" {
			cfg.Git.LocalPath = writableBase
		}
		return cfg
	}

	// Parse Object archive configuration
	if storeType == "s3" || storeType == "object" || storeType == "minio" {
		cfg.Type = TypeObject
	}
	if value, ok := lookupEnv("MUX_CONSOLE_OBJECTSTORE_ENDPOINT"); ok {
		cfg.Type = TypeObject
		cfg.Object.Endpoint = value
	}
	if cfg.Type == TypeObject {
		if value, ok := lookupEnv("MUX_CONSOLE_OBJECTSTORE_ACCESS_KEY"); ok {
			cfg.Object.AccessKey = value
		}
		if value, ok := lookupEnv("MUX_CONSOLE_OBJECTSTORE_SECRET_KEY"); ok {
			cfg.Object.SecretKey = value
		}
		if value, ok := lookupEnv("MUX_CONSOLE_OBJECTSTORE_BUCKET"); ok {
			cfg.Object.Bucket = value
		}
		if value, ok := lookupEnv("MUX_CONSOLE_OBJECTSTORE_PREFIX"); ok {
			cfg.Object.Prefix = value
		}
		return cfg
	}

	return cfg
}

// ApplyObjectURL fills bucket and prefix from an s3://bucket/prefix URL.
func (c *ObjectStoreConfig) ApplyObjectURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("store: invalid object URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("store: object URL %q has no bucket", raw)
	}
	c.Bucket = u.Host
	c.Prefix = strings.Trim(u.Path, "/")
	return nil
}

// IsRemote returns true if a non-filesystem backend is configured.
func (c StoreConfig) IsRemote() bool {
	return c.Type != TypeFS
}

// IsGit returns true if the git backend is configured.
func (c StoreConfig) IsGit() bool {
	return c.Type == TypeGit
}

// IsObject returns true if the object storage backend is configured.
func (c StoreConfig) IsObject() bool {
	return c.Type == TypeObject
}
