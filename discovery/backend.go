package discovery

import (
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/grandcat/zeroconf"
)

// Backend is a message backend advertised over mDNS.
type Backend struct {
	Name      string
	HostName  string
	Port      int
	Path      string
	Version   int
	Addresses []string
}

// BaseURL builds the HTTP address of the backend, preferring an IPv4 address.
// It returns "" when the entry carries no usable address.
func (b Backend) BaseURL() string {
	if b.Port <= 0 {
		return ""
	}

	host := ""
	for _, addr := range b.Addresses {
		ip := net.ParseIP(addr)
		if ip == nil {
			continue
		}
		if ip.To4() != nil {
			host = addr
			break
		}
		if host == "" {
			host = addr
		}
	}
	if host == "" {
		host = strings.TrimSuffix(b.HostName, ".")
	}
	if host == "" {
		return ""
	}

	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, strconv.Itoa(b.Port)),
		Path:   strings.TrimRight(b.Path, "/"),
	}
	return u.String()
}

func (b Backend) key() string {
	return b.Name + "|" + b.HostName + "|" + strconv.Itoa(b.Port)
}

func parseEntry(entry *zeroconf.ServiceEntry) (Backend, bool) {
	if entry.Port <= 0 {
		return Backend{}, false
	}
	txt := txtToMap(entry.Text)

	version := 0
	if txt["version"] != "" {
		if parsed, err := strconv.Atoi(txt["version"]); err == nil {
			version = parsed
		}
	}

	path := txt["path"]
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	addresses := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	seen := make(map[string]struct{})
	for _, ip := range append(entry.AddrIPv4, entry.AddrIPv6...) {
		if ip == nil {
			continue
		}
		raw := ip.String()
		if raw == "" {
			continue
		}
		if _, exists := seen[raw]; exists {
			continue
		}
		seen[raw] = struct{}{}
		addresses = append(addresses, raw)
	}
	sort.Strings(addresses)

	name := strings.TrimSpace(entry.Instance)
	if name == "" {
		name = strings.TrimSpace(entry.HostName)
	}

	return Backend{
		Name:      name,
		HostName:  entry.HostName,
		Port:      entry.Port,
		Path:      path,
		Version:   version,
		Addresses: addresses,
	}, true
}

func txtToMap(text []string) map[string]string {
	out := make(map[string]string, len(text))
	for _, entry := range text {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(parts[1])
	}
	return out
}
