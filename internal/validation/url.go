package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks provider endpoints, continuation tokens and image
// references before the client or the exporter dereferences them.
type URLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// AllowedHosts, when non-empty, restricts URLs to these hostnames.
	AllowedHosts []string
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewURLValidator creates a new validator with secure defaults
func NewURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveURLValidator allows local development servers.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// RestrictTo returns a copy of v that only accepts the given hosts.
func (v *URLValidator) RestrictTo(hosts ...string) *URLValidator {
	c := *v
	c.AllowedHosts = append([]string(nil), hosts...)
	return &c
}

// ValidateAndNormalize validates an http(s) URL and returns its normalized form.
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}

	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}

	if err := v.validateHost(parsedURL.Hostname()); err != nil {
		return "", err
	}

	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	return parsedURL.String(), nil
}

func (v *URLValidator) validateHost(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	if len(v.AllowedHosts) > 0 {
		allowed := false
		for _, h := range v.AllowedHosts {
			if strings.EqualFold(h, hostname) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("host %q is not permitted", hostname)
		}
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}

	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}

	if hostname == "0.0.0.0" || hostname == "255.255.255.255" {
		return fmt.Errorf("suspicious hostname detected")
	}

	return nil
}

// HostOf returns the hostname of rawURL, or "" if it does not parse.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost") ||
		strings.HasPrefix(hostname, "127.")
}

// isPrivateIP reports RFC 1918, link-local, loopback and IPv6 ULA addresses.
func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
