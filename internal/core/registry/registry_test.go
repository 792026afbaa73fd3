package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSiteRegistry_ResolvesTimezones(t *testing.T) {
	path := writeRegistry(t, `
sites:
  - siteId: "site-mtl"
    timezone: "America/Montreal"
    name: "Montreal lot"
  - siteId: "site-par"
    timezone: "Europe/Paris"
`)

	reg, err := NewSiteRegistry(path)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())
	require.Equal(t, "America/Montreal", reg.TimezoneFor("site-mtl"))
	require.Equal(t, "Europe/Paris", reg.TimezoneFor("site-par"))
	require.Equal(t, "", reg.TimezoneFor("site-unknown"))

	site, ok := reg.Get("site-mtl")
	require.True(t, ok)
	require.Equal(t, "Montreal lot", site.Name)

	_, ok = reg.Get("site-unknown")
	require.False(t, ok)
}

func TestSiteRegistry_EmptyPathYieldsEmptyRegistry(t *testing.T) {
	reg, err := NewSiteRegistry("")
	require.NoError(t, err)
	require.Equal(t, 0, reg.Len())
	require.Equal(t, "", reg.TimezoneFor("site-1"))
}

func TestSiteRegistry_RejectsUnknownTimezone(t *testing.T) {
	path := writeRegistry(t, `
sites:
  - siteId: "site-1"
    timezone: "Mars/Olympus_Mons"
`)

	_, err := NewSiteRegistry(path)
	require.Error(t, err)
	require.ErrorContains(t, err, "unknown timezone")
}

func TestSiteRegistry_RejectsDuplicateSiteID(t *testing.T) {
	path := writeRegistry(t, `
sites:
  - siteId: "site-1"
    timezone: "America/Montreal"
  - siteId: "site-1"
    timezone: "Europe/Paris"
`)

	_, err := NewSiteRegistry(path)
	require.Error(t, err)
	require.ErrorContains(t, err, "duplicate site id")
}

func TestSiteRegistry_RejectsMissingSiteID(t *testing.T) {
	path := writeRegistry(t, `
sites:
  - timezone: "America/Montreal"
`)

	_, err := NewSiteRegistry(path)
	require.Error(t, err)
	require.ErrorContains(t, err, "needs a siteId")
}

func TestSiteRegistry_MissingFileErrors(t *testing.T) {
	_, err := NewSiteRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.ErrorContains(t, err, "reading site registry")
}
