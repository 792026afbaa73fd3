package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Site is one deployment site record. The timezone is the IANA zone all
// cameras at the site observe; ingestion stamps it onto detections that
// arrive without one.
type Site struct {
	SiteID   string `yaml:"siteId"`
	Timezone string `yaml:"timezone"`
	Name     string `yaml:"name"`
}

// registryFile is the on-disk YAML shape.
type registryFile struct {
	Sites []Site `yaml:"sites"`
}

// SiteRegistry resolves site metadata for ingestion. Records are loaded once
// at startup and cached in memory; no hot reload.
type SiteRegistry struct {
	sites map[string]Site
}

// NewSiteRegistry loads the registry from path. An empty path yields an empty
// registry (every lookup misses), which keeps deployments without one working
// as long as devices send their own timezone.
func NewSiteRegistry(path string) (*SiteRegistry, error) {
	reg := &SiteRegistry{sites: make(map[string]Site)}
	if path == "" {
		return reg, nil
	}
	if err := reg.load(path); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *SiteRegistry) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading site registry %s: %w", path, err)
	}

	var raw registryFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing site registry %s: %w", path, err)
	}

	for _, site := range raw.Sites {
		if site.SiteID == "" {
			return fmt.Errorf("site registry %s: every site needs a siteId", path)
		}
		if site.Timezone == "" {
			return fmt.Errorf("site %q: timezone must not be empty", site.SiteID)
		}
		if _, err := time.LoadLocation(site.Timezone); err != nil {
			return fmt.Errorf("site %q: unknown timezone %q: %w", site.SiteID, site.Timezone, err)
		}
		if _, exists := r.sites[site.SiteID]; exists {
			return fmt.Errorf("site %q: duplicate site id (check the registry file)", site.SiteID)
		}
		r.sites[site.SiteID] = site
	}
	return nil
}

// TimezoneFor returns the IANA zone for a site, or "" when the site is not
// registered.
func (r *SiteRegistry) TimezoneFor(siteID string) string {
	return r.sites[siteID].Timezone
}

// Get returns the site record with the given id.
func (r *SiteRegistry) Get(siteID string) (Site, bool) {
	site, ok := r.sites[siteID]
	return site, ok
}

// Len returns the number of registered sites.
func (r *SiteRegistry) Len() int {
	return len(r.sites)
}
