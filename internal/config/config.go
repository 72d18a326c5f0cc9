// Package config defines the read-only configuration contract the
// session core consumes plus a default JSON-file-backed implementation.
package config

// Provider exposes the scalar values handlers like systeminfo and
// drivelist need. The specific values a Provider returns are the
// caller's business; only the shape of the contract matters here.
type Provider interface {
	ConsoleName() string
	Platform() string
	System() string
	BaseKernelVersion() string
	KernelVersion() string
	XDKVersion() string
	HDDSizeBytes() uint64
	Drives() []string
	Modules() []string
	ScreenshotSource() string
	AlternateIP() string
	DebugMode() bool
}

// Static is an in-memory Provider, convenient for tests and for
// embedding fixed values read once at startup.
type Static struct {
	Name              string
	PlatformName      string
	SystemName        string
	BaseKrnl          string
	Krnl              string
	XDK               string
	HDDBytes          uint64
	DriveList         []string
	ModuleList        []string
	ScreenshotSrc     string
	AltIP             string
	Debug             bool
}

func (s *Static) ConsoleName() string       { return s.Name }
func (s *Static) Platform() string          { return s.PlatformName }
func (s *Static) System() string            { return s.SystemName }
func (s *Static) BaseKernelVersion() string { return s.BaseKrnl }
func (s *Static) KernelVersion() string     { return s.Krnl }
func (s *Static) XDKVersion() string        { return s.XDK }
func (s *Static) HDDSizeBytes() uint64      { return s.HDDBytes }
func (s *Static) Drives() []string          { return append([]string(nil), s.DriveList...) }
func (s *Static) Modules() []string         { return append([]string(nil), s.ModuleList...) }
func (s *Static) ScreenshotSource() string  { return s.ScreenshotSrc }
func (s *Static) AlternateIP() string       { return s.AltIP }
func (s *Static) DebugMode() bool           { return s.Debug }

// Default returns a Static provider with reasonable emulator defaults,
// used when no configuration file is supplied.
func Default() *Static {
	return &Static{
		Name:          "XBDM-GO",
		PlatformName:  "Xenon",
		SystemName:    "Xbox 360",
		BaseKrnl:      "2.0.17559.0",
		Krnl:          "2.0.17559.0",
		XDK:           "2.0.17559.0",
		HDDBytes:      20 * 1024 * 1024 * 1024,
		DriveList:     []string{"HDD", "DVD"},
		ModuleList:    []string{"xboxkrnl.exe", "xbdm.xex"},
		ScreenshotSrc: "framebuffer",
		AltIP:         "0.0.0.0",
		Debug:         false,
	}
}
