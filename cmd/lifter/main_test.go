package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjrh/lifter/internal/config"
	"github.com/cjrh/lifter/internal/lifter"
	"github.com/cjrh/lifter/internal/platform"
	"github.com/cjrh/lifter/internal/testutil"
)

var testDetector = platform.StaticDetector{Info: platform.Info{OS: "linux", Arch: "amd64", Machine: "x86_64"}}

func TestParseOptions_EnvDefaults(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	t.Setenv("LIFTER_WORKERS", "7")

	opts, err := parseOptions(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, env.Config, opts.configPath)
	assert.Equal(t, env.OutputDir, opts.outputDir)
	assert.Equal(t, 7, opts.workers)
	assert.Empty(t, opts.sections)
}

func TestParseOptions_FlagsOverrideEnv(t *testing.T) {
	testutil.SetupTestEnv(t)

	opts, err := parseOptions([]string{
		"-config", "other.ini", "-workers", "2", "-dir", "/opt/bin",
		"-section", "rg", "-section", "fd", "-v", "-json",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "other.ini", opts.configPath)
	assert.Equal(t, 2, opts.workers)
	assert.Equal(t, "/opt/bin", opts.outputDir)
	assert.Equal(t, []string{"rg", "fd"}, []string(opts.sections))
	assert.True(t, opts.verbose)
	assert.True(t, opts.jsonLogs)
}

func TestParseOptions_Defaults(t *testing.T) {
	t.Setenv("LIFTER_CONFIG", "")
	t.Setenv("LIFTER_DIR", "")
	t.Setenv("LIFTER_WORKERS", "")

	opts, err := parseOptions(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, defaultConfig, opts.configPath)
	assert.Equal(t, ".", opts.outputDir)
	assert.Equal(t, lifter.DefaultWorkers, opts.workers)
}

func TestParseOptions_Invalid(t *testing.T) {
	testutil.SetupTestEnv(t)

	tests := []struct {
		name string
		env  string
		args []string
	}{
		{name: "bad env workers", env: "many"},
		{name: "zero env workers", env: "0"},
		{name: "zero flag workers", args: []string{"-workers", "0"}},
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "positional args", args: []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LIFTER_WORKERS", tt.env)
			_, err := parseOptions(tt.args, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}
}

func TestRun_Version(t *testing.T) {
	testutil.SetupTestEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-version"}, &stdout, &stderr, testDetector)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), Version)
}

func TestRun_BadFlagsExitOne(t *testing.T) {
	testutil.SetupTestEnv(t)
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 1, run([]string{"-workers", "x"}, &stdout, &stderr, testDetector))
}

func TestRun_MissingConfigExitOne(t *testing.T) {
	testutil.SetupTestEnv(t)
	var stdout, stderr bytes.Buffer

	code := run(nil, &stdout, &stderr, testDetector)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "failed to load config")
}

func TestRun_UpdatesAndRecordsVersion(t *testing.T) {
	env := testutil.SetupTestEnv(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>2.0.0</h1>
<a href="/dl/tool-darwin-arm64">tool-darwin-arm64</a>
<a href="/dl/tool-linux-amd64">tool-linux-amd64</a></body></html>`)
	})
	mux.HandleFunc("/dl/tool-linux-amd64", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#!/bin/sh\necho tool\n"))
	})
	mux.HandleFunc("/dl/tool-darwin-arm64", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("wrong platform"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	testutil.WriteConfig(t, env.Config, fmt.Sprintf(`[tool]
page_url = %[1]s/releases
anchor_tag = a
anchor_text = tool-{os}-{arch}
version_tag = h1
desired_filename = tool
version = 1.0.0

[broken]
page_url = %[1]s/missing
anchor_tag = a
anchor_text = x
desired_filename = broken
`, srv.URL))

	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr, testDetector)

	// A failing section is reported but does not change the exit code.
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "[tool] update available: 1.0.0 -> 2.0.0")
	assert.Contains(t, stdout.String(), "[tool] updated to 2.0.0")
	assert.Contains(t, stdout.String(), "all checks complete")
	assert.Regexp(t, `broken\s+failed`, stdout.String())

	data, err := os.ReadFile(filepath.Join(env.OutputDir, "tool"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho tool\n", string(data))

	store, err := config.LoadStore(env.Config)
	require.NoError(t, err)
	fields, ok := store.Section("tool")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", fields[config.KeyVersion])
}

func TestRun_SelectedSectionOnly(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	testutil.WriteConfig(t, env.Config, `[a]
desired_filename = a

[b]
desired_filename = b
`)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-section", "b"}, &stdout, &stderr, testDetector)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "[b] checking")
	assert.NotContains(t, stdout.String(), "[a] checking")
}

func TestPrinter_ThrottlesProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	for _, f := range []float64{0.1, 0.2, 0.3, 0.5, 0.6, 0.9, 1.0, 1.0} {
		p.print(lifter.Event{Kind: lifter.DownloadProgress, Section: "rg", Progress: f})
	}

	assert.Equal(t, "[rg] downloading  30%\n[rg] downloading  60%\n[rg] downloading  90%\n[rg] downloading 100%\n", buf.String())
}

func TestPrintSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, nil)
	assert.Equal(t, "No sections to check.\n", buf.String())
}
