package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nghyane/mux-console/internal/buildinfo"
	"github.com/nghyane/mux-console/internal/cli/env"
	"github.com/nghyane/mux-console/internal/config"
	"github.com/nghyane/mux-console/internal/json"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/nghyane/mux-console/internal/store"
	"github.com/nghyane/mux-console/internal/util"
)

// BootstrapResult contains the result of bootstrapping the application.
type BootstrapResult struct {
	Config         *config.Config
	ConfigFilePath string
	ArchiveConfig  store.StoreConfig
}

// Bootstrap initializes the console configuration and the report archive.
// It should be called before any command that needs access to config.
func Bootstrap(configPath string) (*BootstrapResult, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	xdgConfigDir, _ := util.ResolvePath("$XDG_CONFIG_HOME/mux-console")
	defaultConfigPath := filepath.Join(xdgConfigDir, "config.yaml")

	var cfg *config.Config
	var configFilePath string

	if configPath != "" {
		if resolved, errResolve := util.ResolvePath(configPath); errResolve == nil {
			configPath = resolved
		}
		configFilePath = configPath

		if configPath == defaultConfigPath {
			if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
				autoInitConfig(configPath)
			}
		}

		cfg, err = config.LoadConfigOptional(configPath, true)
	} else {
		configFilePath = filepath.Join(wd, "config.yaml")
		cfg, err = config.LoadConfigOptional(configFilePath, true)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	applyEnvOverrides(cfg)

	archiveCfg, err := resolveArchiveConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report archive: %w", err)
	}

	return &BootstrapResult{
		Config:         cfg,
		ConfigFilePath: configFilePath,
		ArchiveConfig:  archiveCfg,
	}, nil
}

// resolveArchiveConfig picks the report archive backend. An explicit DSN
// (config file or MUX_CONSOLE_ARCHIVE_DSN) wins over the MUX_CONSOLE_STORE_*
// environment family; with neither, reports land on the local filesystem.
func resolveArchiveConfig(cfg *config.Config) (store.StoreConfig, error) {
	dsn := cfg.Reports.ArchiveDSN
	if dsn == "" {
		return store.ParseFromEnv(env.LookupEnv, archiveBaseDir(cfg)), nil
	}

	parsed, err := config.ParseDSN(dsn)
	if err != nil {
		return store.StoreConfig{}, err
	}

	archiveCfg := store.StoreConfig{}
	switch {
	case parsed.IsFile():
		archiveCfg.FS.Dir = parsed.Path
	case parsed.IsS3():
		archiveCfg.Type = store.TypeObject
		if err := archiveCfg.Object.ApplyObjectURL(parsed.URL); err != nil {
			return store.StoreConfig{}, err
		}
		if value, ok := env.LookupEnv("MUX_CONSOLE_OBJECTSTORE_ENDPOINT"); ok {
			archiveCfg.Object.Endpoint = value
		}
		if value, ok := env.LookupEnv("MUX_CONSOLE_OBJECTSTORE_ACCESS_KEY"); ok {
			archiveCfg.Object.AccessKey = value
		}
		if value, ok := env.LookupEnv("MUX_CONSOLE_OBJECTSTORE_SECRET_KEY"); ok {
			archiveCfg.Object.SecretKey = value
		}
	case parsed.IsGit():
		archiveCfg.Type = store.TypeGit
		archiveCfg.Git.RemoteURL = parsed.URL
		if value, ok := env.LookupEnv("MUX_CONSOLE_GITSTORE_USERNAME"); ok {
			archiveCfg.Git.Username = value
		}
		if value, ok := env.LookupEnv("MUX_CONSOLE_GITSTORE_TOKEN"); ok {
			archiveCfg.Git.Password = value
		}
		if value, ok := env.LookupEnv("MUX_CONSOLE_GITSTORE_LOCAL_PATH"); ok {
			archiveCfg.Git.LocalPath = value
		} else {
			archiveCfg.Git.LocalPath = archiveBaseDir(cfg)
		}
	}

	log.Infof("Report archive: %s", config.RedactDSN(dsn))
	return archiveCfg, nil
}

// archiveBaseDir returns the local directory backing the filesystem archive
// and the git work tree. WRITABLE_PATH wins for relocatable installs.
func archiveBaseDir(cfg *config.Config) string {
	if base := util.WritablePath(); base != "" {
		return filepath.Join(base, "reports")
	}
	return cfg.ReportsDir()
}

// autoInitConfig silently creates config on first run
func autoInitConfig(configPath string) {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return
	}
	if err := os.WriteFile(configPath, config.GenerateDefaultConfigYAML(), 0o600); err != nil {
		return
	}
	fmt.Printf("First run: created config at %s\n", configPath)
}

// applyEnvOverrides applies environment variable overrides for container deployments.
// MUX_CONSOLE_ADMIN_TOKEN is not handled here: credentials loading reads it directly.
func applyEnvOverrides(cfg *config.Config) {
	if port, ok := env.LookupEnvInt("MUX_CONSOLE_PORT"); ok {
		cfg.Port = port
		log.Infof("Port overridden by env: %d", port)
	}

	if debug, ok := env.LookupEnvBool("MUX_CONSOLE_DEBUG"); ok {
		cfg.Debug = debug
		log.Infof("Debug overridden by env: %v", debug)
	}

	if adminURL, ok := env.LookupEnv("MUX_CONSOLE_ADMIN_URL"); ok {
		cfg.Servers = []config.Server{{Name: "env", BaseURL: adminURL, Default: true}}
		log.Infof("Admin URL overridden by env: %s", adminURL)
	}

	if windowMs, ok := env.LookupEnvInt("MUX_CONSOLE_WINDOW_MS"); ok {
		cfg.WindowMs = int64(windowMs)
		log.Infof("Window overridden by env: %dms", windowMs)
	}

	if interval, ok := env.LookupEnv("MUX_CONSOLE_REFRESH_INTERVAL"); ok {
		cfg.RefreshInterval = interval
		log.Infof("Refresh interval overridden by env: %s", interval)
	}

	if proxyURL, ok := env.LookupEnv("MUX_CONSOLE_PROXY_URL"); ok {
		for i := range cfg.Servers {
			cfg.Servers[i].ProxyURL = proxyURL
		}
		log.Infof("Proxy URL overridden by env")
	}

	if loggingToFile, ok := env.LookupEnvBool("MUX_CONSOLE_LOGGING_TO_FILE"); ok {
		cfg.LoggingToFile = loggingToFile
		log.Infof("Logging to file overridden by env: %v", loggingToFile)
	}

	if dsn, ok := env.LookupEnv("MUX_CONSOLE_ARCHIVE_DSN"); ok {
		cfg.Reports.ArchiveDSN = dsn
		log.Infof("Archive DSN overridden by env: %s", config.RedactDSN(dsn))
	}

	if allowRemote, ok := env.LookupEnvBool("MUX_CONSOLE_ALLOW_REMOTE"); ok {
		cfg.Remote.AllowRemote = allowRemote
		log.Infof("Remote access overridden by env: %v", allowRemote)
	}

	if requestLog, ok := env.LookupEnvBool("MUX_CONSOLE_REQUEST_LOG"); ok {
		cfg.RequestLog = requestLog
		log.Infof("Request log overridden by env: %v", requestLog)
	}
}

// DoInitConfig handles the init command with smart behavior.
func DoInitConfig(configPath string, force bool) error {
	configPath, _ = util.ResolvePath(configPath)
	dir := filepath.Dir(configPath)
	credPath := config.CredentialsFilePath()

	configExists := fileExists(configPath)
	credExists := fileExists(credPath)

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Create config if missing
	if !configExists {
		if err := os.WriteFile(configPath, config.GenerateDefaultConfigYAML(), 0o600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Created: %s\n", configPath)
	}

	// Handle credentials
	if credExists && !force {
		token := config.GetAdminToken()
		if token != "" {
			fmt.Printf("Admin token: %s\n", token)
			fmt.Printf("Location: %s\n", credPath)
			fmt.Println("Use init --force to regenerate")
			return nil
		}
	}

	// Generate new token
	token, err := config.GenerateAdminToken()
	if err != nil {
		return fmt.Errorf("failed to generate admin token: %w", err)
	}
	if err := config.StoreAdminToken(token); err != nil {
		return fmt.Errorf("failed to store admin token: %w", err)
	}

	if credExists && force {
		fmt.Println("Regenerated admin token:")
	} else {
		fmt.Println("Generated admin token:")
	}
	fmt.Printf("  %s\n", token)
	fmt.Printf("Location: %s\n", credPath)
	fmt.Println("To reuse the gateway's existing token: mux-console config import-token")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DoUpdate checks for updates and installs if available.
func DoUpdate(checkOnly bool) error {
	fmt.Println("Checking for updates...")

	latestVersion, err := fetchLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	currentVersion := strings.TrimPrefix(buildinfo.Version, "v")
	latestVersion = strings.TrimPrefix(latestVersion, "v")

	if currentVersion == "dev" || currentVersion == "" {
		fmt.Println("Running development version, updating to latest release...")
	} else if compareVersions(currentVersion, latestVersion) >= 0 {
		fmt.Printf("Already up to date (current: v%s, latest: v%s)\n", currentVersion, latestVersion)
		return nil
	} else {
		fmt.Printf("Update available: v%s -> v%s\n", currentVersion, latestVersion)
	}

	if checkOnly {
		return nil
	}

	fmt.Println("Downloading and installing update...")
	if err := runInstallScript(); err != nil {
		return fmt.Errorf("failed to install update: %w", err)
	}
	fmt.Println("Update complete! Please restart mux-console.")
	return nil
}

func fetchLatestVersion() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", "https://api.github.com/repos/nghyane/mux-console/releases/latest", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	return release.TagName, nil
}

func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		var n1, n2 int
		if i < len(parts1) {
			fmt.Sscanf(parts1[i], "%d", &n1)
		}
		if i < len(parts2) {
			fmt.Sscanf(parts2[i], "%d", &n2)
		}
		if n1 < n2 {
			return -1
		}
		if n1 > n2 {
			return 1
		}
	}
	return 0
}

func runInstallScript() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", "https://raw.githubusercontent.com/nghyane/mux-console/main/install.sh", nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("failed to download install script: status %d", resp.StatusCode)
	}

	scriptContent, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp("", "mux-console-install-*.sh")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(scriptContent); err != nil {
		tmpFile.Close()
		return err
	}
	tmpFile.Close()

	if err := os.Chmod(tmpFile.Name(), 0755); err != nil {
		return err
	}

	cmd := exec.Command("bash", tmpFile.Name(), "--no-service", "--force")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
