package config

import "maps"

// SiteConfig holds request customization for one pad server.
// It is how private pads behind a login are reached.
type SiteConfig struct {
	// Cookie is sent with every request to the server.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request to the server.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Site returns the configuration for host, merging crawl.sites[host]
// over crawl.site-defaults.
func (c *CrawlConfig) Site(host string) SiteConfig {
	result := SiteConfig{Cookie: c.SiteDefaults.Cookie}
	if len(c.SiteDefaults.Headers) > 0 {
		result.Headers = maps.Clone(c.SiteDefaults.Headers)
	}

	site, ok := c.Sites[host]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

// SiteConfigs returns the merged configuration of every configured server
// that ends up with a cookie or headers. Hosts without customization are
// omitted.
func (c *CrawlConfig) SiteConfigs() map[string]SiteConfig {
	out := make(map[string]SiteConfig)
	add := func(host string) {
		if _, done := out[host]; done {
			return
		}
		if site := c.Site(host); site.Cookie != "" || len(site.Headers) > 0 {
			out[host] = site
		}
	}
	for _, host := range c.Servers {
		add(host)
	}
	for host := range c.Sites {
		add(host)
	}
	return out
}
