package auth

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DeviceInfo is what the session records about the client.
type DeviceInfo struct {
	Type      string
	Name      string
	Browser   string
	OS        string
	UserAgent string
}

// ParseDeviceInfo classifies a User-Agent header with simple substring rules.
// Anything unrecognised is reported as Unknown.
func ParseDeviceInfo(userAgent string) DeviceInfo {
	ua := strings.ToLower(userAgent)
	info := DeviceInfo{UserAgent: userAgent}

	switch {
	case strings.Contains(ua, "windows"):
		info.OS = "Windows"
	case strings.Contains(ua, "mac os x"), strings.Contains(ua, "macos"):
		info.OS = "macOS"
	case strings.Contains(ua, "linux"):
		info.OS = "Linux"
	case strings.Contains(ua, "android"):
		info.OS = "Android"
	case strings.Contains(ua, "ios"), strings.Contains(ua, "iphone os"):
		info.OS = "iOS"
	default:
		info.OS = "Unknown OS"
	}

	switch {
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "chromium"):
		info.Browser = "Chrome"
	case strings.Contains(ua, "firefox"):
		info.Browser = "Firefox"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		info.Browser = "Safari"
	case strings.Contains(ua, "edge"):
		info.Browser = "Edge"
	case strings.Contains(ua, "opera"):
		info.Browser = "Opera"
	default:
		info.Browser = "Unknown Browser"
	}

	switch {
	case strings.Contains(ua, "iphone"):
		info.Type, info.Name = "Mobile", "iPhone"
	case strings.Contains(ua, "ipad"):
		info.Type, info.Name = "Tablet", "iPad"
	case strings.Contains(ua, "android") && strings.Contains(ua, "mobile"):
		info.Type, info.Name = "Mobile", "Android Phone"
	case strings.Contains(ua, "android"):
		info.Type, info.Name = "Tablet", "Android Tablet"
	case strings.Contains(ua, "mobile"):
		info.Type, info.Name = "Mobile", "Mobile Device"
	case strings.Contains(ua, "tablet"):
		info.Type, info.Name = "Tablet", "Tablet"
	case strings.Contains(ua, "desktop"):
		info.Type, info.Name = "Desktop", "Desktop Computer"
	default:
		info.Type, info.Name = "Unknown", "Unknown Device"
	}
	return info
}

// ClientIP returns the first X-Forwarded-For entry when present and parseable,
// otherwise the host part of RemoteAddr. The zero Addr means neither could be read.
func ClientIP(r *http.Request) netip.Addr {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return ip.Unmap()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return ip.Unmap()
}
