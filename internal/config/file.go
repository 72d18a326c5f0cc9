package config

import (
	"encoding/json"
	"os"
)

// persistentConfig is the on-disk shape of a FileProvider's
// configuration, following the same load-defaults-then-overlay-JSON
// shape used elsewhere in this codebase for persisted settings.
type persistentConfig struct {
	ConsoleName       string   `json:"console_name"`
	Platform          string   `json:"platform"`
	System            string   `json:"system"`
	BaseKernelVersion string   `json:"base_kernel_version"`
	KernelVersion     string   `json:"kernel_version"`
	XDKVersion        string   `json:"xdk_version"`
	HDDSizeBytes      uint64   `json:"hdd_size_bytes"`
	Drives            []string `json:"drives"`
	Modules           []string `json:"modules"`
	ScreenshotSource  string   `json:"screenshot_source"`
	AlternateIP       string   `json:"alternate_ip"`
	DebugMode         bool     `json:"debug_mode"`
}

// FileProvider is a Provider backed by an optional JSON file on disk;
// any field absent from the file (or the file itself, if missing)
// falls back to Default()'s values.
type FileProvider struct {
	*Static
}

// LoadFile reads path (if present) and overlays it onto the default
// configuration. A missing file is not an error; it simply yields the
// defaults, matching cmd/xbdmd's zero-configuration startup path.
func LoadFile(path string) (*FileProvider, error) {
	base := Default()
	stored := persistentConfig{
		ConsoleName:       base.Name,
		Platform:          base.PlatformName,
		System:            base.SystemName,
		BaseKernelVersion: base.BaseKrnl,
		KernelVersion:     base.Krnl,
		XDKVersion:        base.XDK,
		HDDSizeBytes:      base.HDDBytes,
		Drives:            base.DriveList,
		Modules:           base.ModuleList,
		ScreenshotSource:  base.ScreenshotSrc,
		AlternateIP:       base.AltIP,
		DebugMode:         base.Debug,
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return &FileProvider{Static: &Static{
		Name:          stored.ConsoleName,
		PlatformName:  stored.Platform,
		SystemName:    stored.System,
		BaseKrnl:      stored.BaseKernelVersion,
		Krnl:          stored.KernelVersion,
		XDK:           stored.XDKVersion,
		HDDBytes:      stored.HDDSizeBytes,
		DriveList:     stored.Drives,
		ModuleList:    stored.Modules,
		ScreenshotSrc: stored.ScreenshotSource,
		AltIP:         stored.AlternateIP,
		Debug:         stored.DebugMode,
	}}, nil
}

// Save writes the provider's current values to path as indented JSON.
func (p *FileProvider) Save(path string) error {
	stored := persistentConfig{
		ConsoleName:       p.Name,
		Platform:          p.PlatformName,
		System:            p.SystemName,
		BaseKernelVersion: p.BaseKrnl,
		KernelVersion:     p.Krnl,
		XDKVersion:        p.XDK,
		HDDSizeBytes:      p.HDDBytes,
		Drives:            p.DriveList,
		Modules:           p.ModuleList,
		ScreenshotSource:  p.ScreenshotSrc,
		AlternateIP:       p.AltIP,
		DebugMode:         p.Debug,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
