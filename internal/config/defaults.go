package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/dragwatch/
//   - Linux:   ~/.local/share/dragwatch/
//   - Windows: %APPDATA%\dragwatch\
//
// Falls back to ~/.dragwatch if platform detection fails. The
// DRAGWATCH_DATA_DIR environment variable overrides everything.
func PlatformDataDir() string {
	if envDir := os.Getenv("DRAGWATCH_DATA_DIR"); envDir != "" {
		return envDir
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", "dragwatch")
	case "linux":
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "dragwatch")
		}
		return filepath.Join(homeDir(), ".local", "share", "dragwatch")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "dragwatch")
		}
		return filepath.Join(homeDir(), "AppData", "Roaming", "dragwatch")
	default:
		return filepath.Join(homeDir(), ".dragwatch")
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/dragwatch/
//   - Linux:   ~/.config/dragwatch/
//   - Windows: %APPDATA%\dragwatch\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "dragwatch")
		}
		return filepath.Join(homeDir(), ".config", "dragwatch")
	default:
		// macOS and Windows keep config with data.
		return PlatformDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/dragwatch/
//   - Linux:   ~/.local/share/dragwatch/logs/
//   - Windows: %LOCALAPPDATA%\dragwatch\logs\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", "dragwatch")
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "dragwatch", "logs")
		}
		return filepath.Join(homeDir(), "AppData", "Local", "dragwatch", "logs")
	default:
		return filepath.Join(PlatformDataDir(), "logs")
	}
}

// PlatformRuntimeDir returns the directory for sockets and PID files.
// Windows uses named pipes, so this returns empty there.
func PlatformRuntimeDir() string {
	switch runtime.GOOS {
	case "windows":
		return ""
	case "linux":
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, "dragwatch")
		}
	}
	return filepath.Join("/tmp", "dragwatch-"+strconv.Itoa(os.Getuid()))
}

// DefaultSocketPath returns the default IPC endpoint.
func DefaultSocketPath() string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\dragwatch`
	}
	return filepath.Join(PlatformRuntimeDir(), "dragwatchd.sock")
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

// FindConfigFile searches standard locations for a config file.
// Returns the first match or empty string.
func FindConfigFile() string {
	searchDirs := []string{
		".",
		PlatformConfigDir(),
		PlatformDataDir(),
	}

	for _, dir := range searchDirs {
		for _, ext := range []string{"toml", "json", "yaml", "yml"} {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
