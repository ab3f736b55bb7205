package collector

import (
	"fmt"

	"github.com/mileusna/useragent"
)

// Device type thresholds in CSS pixels.
const (
	mobileMaxWidth = 768
	tabletMaxWidth = 1024
)

// Fingerprint is the raw client environment a caller supplies.
type Fingerprint struct {
	UserAgent    string
	ScreenWidth  int
	ScreenHeight int
}

// DeviceInfo is the resolved fingerprint attached to page visits.
type DeviceInfo struct {
	BrowserName      string
	BrowserVersion   string
	OSName           string
	DeviceType       string
	ScreenResolution string
}

// Resolve parses the user agent and classifies the device by screen width.
func (f Fingerprint) Resolve() DeviceInfo {
	parsed := useragent.Parse(f.UserAgent)

	info := DeviceInfo{
		BrowserName:    parsed.Name,
		BrowserVersion: parsed.Version,
		OSName:         parsed.OS,
		DeviceType:     classifyDevice(f.ScreenWidth),
	}
	if info.BrowserName == "" {
		info.BrowserName = "unknown"
	}
	if info.OSName == "" {
		info.OSName = "unknown"
	}
	if f.ScreenWidth > 0 && f.ScreenHeight > 0 {
		info.ScreenResolution = fmt.Sprintf("%dx%d", f.ScreenWidth, f.ScreenHeight)
	}
	return info
}

func classifyDevice(width int) string {
	switch {
	case width <= 0:
		return "unknown"
	case width < mobileMaxWidth:
		return "mobile"
	case width < tabletMaxWidth:
		return "tablet"
	default:
		return "desktop"
	}
}
