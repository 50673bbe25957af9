package config

import (
	"io"
	"net/url"

	"gopkg.in/yaml.v3"
)

const redacted = "xxxxx"

// Redacted returns a copy with passwords in URLs and fields masked
func (c *Config) Redacted() *Config {
	out := *c
	out.Relational.Primary.URL = redactURL(c.Relational.Primary.URL)
	out.Relational.Fallback.URL = redactURL(c.Relational.Fallback.URL)
	out.Document.Primary.URL = redactURL(c.Document.Primary.URL)
	out.Document.Fallback.URL = redactURL(c.Document.Fallback.URL)
	out.Cache.Primary.URL = redactURL(c.Cache.Primary.URL)
	out.Cache.Fallback.URL = redactURL(c.Cache.Fallback.URL)
	if c.Cache.Primary.Password != "" {
		out.Cache.Primary.Password = redacted
	}
	if c.Cache.Fallback.Password != "" {
		out.Cache.Fallback.Password = redacted
	}
	return &out
}

// WriteYAML writes the redacted configuration as YAML
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Redacted()); err != nil {
		return err
	}
	return enc.Close()
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	return u.Redacted()
}
