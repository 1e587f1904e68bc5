package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	r := NewResolver()

	t.Run("member and desired filename default to section", func(t *testing.T) {
		spec, err := r.Resolve("rg", map[string]string{KeyPageURL: "https://example.com"}, nil)
		require.NoError(t, err)
		require.NotNil(t, spec)
		assert.Equal(t, "rg", spec.ArchiveMemberPattern)
		assert.Equal(t, "rg", spec.DesiredFilename)
		assert.Equal(t, MethodHTMLScrape, spec.FetchMethod)
		assert.Empty(t, spec.RecordedVersion)
	})

	t.Run("desired filename defaults to member pattern", func(t *testing.T) {
		spec, err := r.Resolve("ripgrep", map[string]string{
			KeyPageURL:       "https://example.com",
			KeyArchiveMember: "rg",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "rg", spec.ArchiveMemberPattern)
		assert.Equal(t, "rg", spec.DesiredFilename)
	})

	t.Run("explicit desired filename wins", func(t *testing.T) {
		spec, err := r.Resolve("ripgrep", map[string]string{
			KeyPageURL:         "https://example.com",
			KeyArchiveMember:   "rg",
			KeyDesiredFilename: "bin/rg",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "bin/rg", spec.DesiredFilename)
	})
}

func TestResolveMissingPageURL(t *testing.T) {
	spec, err := NewResolver().Resolve("orphan", map[string]string{KeyAnchorTag: "a"}, nil)
	require.NoError(t, err)
	assert.Nil(t, spec)
}

func TestResolveTemplate(t *testing.T) {
	templates := Templates{
		"github_release": {
			KeyPageURL:    "https://github.com/{project}/releases",
			KeyAnchorTag:  "html main div.Box a",
			KeyVersionTag: "html main div.Box h1",
		},
	}

	t.Run("template fields substituted from section", func(t *testing.T) {
		spec, err := NewResolver().Resolve("ripgrep", map[string]string{
			KeyTemplate:   "github_release",
			"project":     "BurntSushi/ripgrep",
			KeyAnchorText: `ripgrep-(\d+\.\d+\.\d+)-x86_64-unknown-linux-musl.tar.gz`,
			KeyVersion:    "12.1.1",
		}, templates)
		require.NoError(t, err)
		assert.Equal(t, "github_release", spec.Template)
		assert.Equal(t, "https://github.com/BurntSushi/ripgrep/releases", spec.PageURL)
		assert.Equal(t, "html main div.Box a", spec.AnchorSelector)
		assert.Equal(t, "html main div.Box h1", spec.VersionSelector)
		assert.Equal(t, `ripgrep-(\d+\.\d+\.\d+)-x86_64-unknown-linux-musl.tar.gz`, spec.AnchorTextPattern)
		assert.Equal(t, "12.1.1", spec.RecordedVersion)
	})

	t.Run("section overrides template", func(t *testing.T) {
		spec, err := NewResolver().Resolve("ripgrep", map[string]string{
			KeyTemplate:  "github_release",
			"project":    "BurntSushi/ripgrep",
			KeyAnchorTag: "a.asset",
		}, templates)
		require.NoError(t, err)
		assert.Equal(t, "a.asset", spec.AnchorSelector)
	})

	t.Run("section fields see template results", func(t *testing.T) {
		spec, err := NewResolver().Resolve("ripgrep", map[string]string{
			KeyTemplate:        "github_release",
			"project":          "BurntSushi/ripgrep",
			KeyDesiredFilename: "{project}.bin",
		}, templates)
		require.NoError(t, err)
		assert.Equal(t, "BurntSushi/ripgrep.bin", spec.DesiredFilename)
	})

	t.Run("unknown template lists available names", func(t *testing.T) {
		_, err := NewResolver().Resolve("ripgrep", map[string]string{
			KeyTemplate: "gitlab_release",
			KeyPageURL:  "https://example.com",
		}, templates)
		require.Error(t, err)

		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "ripgrep", cfgErr.Section)
		assert.True(t, errors.Is(err, ErrTemplateNotFound))
		assert.Contains(t, err.Error(), "github_release")
	})

	t.Run("template placeholder without value", func(t *testing.T) {
		_, err := NewResolver().Resolve("ripgrep", map[string]string{
			KeyTemplate: "github_release",
		}, templates)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedField))
	})
}

func TestResolveBuiltins(t *testing.T) {
	r := NewResolver(WithBuiltins(map[string]string{"os": "linux", "arch": "amd64"}))

	spec, err := r.Resolve("tool", map[string]string{
		KeyPageURL:    "https://example.com/{os}/{arch}",
		KeyAnchorText: `tool-{os}-\d{1,3}`,
		"arch":        "arm64",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/linux/arm64", spec.PageURL)
	assert.Equal(t, `tool-linux-\d{1,3}`, spec.AnchorTextPattern)
}

func TestResolveMethod(t *testing.T) {
	r := NewResolver()

	spec, err := r.Resolve("rg", map[string]string{KeyPageURL: "https://api.example.com", KeyMethod: "json_api"}, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodJSONAPI, spec.FetchMethod)

	_, err = r.Resolve("rg", map[string]string{KeyPageURL: "https://api.example.com", KeyMethod: "soap"}, nil)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, KeyMethod, cfgErr.Field)
}

func TestParseFetchMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    FetchMethod
		wantErr bool
	}{
		{"", MethodHTMLScrape, false},
		{"html_scrape", MethodHTMLScrape, false},
		{"html", MethodHTMLScrape, false},
		{"json_api", MethodJSONAPI, false},
		{"json", MethodJSONAPI, false},
		{"xml", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFetchMethod(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" && tt.in != "html" && tt.in != "json" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}

func TestWantsVerification(t *testing.T) {
	assert.False(t, (&EntrySpec{}).WantsVerification())
	assert.True(t, (&EntrySpec{ChecksumSuffix: ".sha256"}).WantsVerification())
	assert.True(t, (&EntrySpec{SignatureSuffix: ".asc"}).WantsVerification())
}
