package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sidelines/internal/config"
	"sidelines/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	server     *testsupport.CommentaryServer
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ServerOption) *cliTestEnv {
	t.Helper()

	srv := testsupport.NewCommentaryServer(t, opts...)
	cfg := testsupport.NewConfig(t, testsupport.WithServerURL(srv.URL))
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("SIDELINES_SERVER_URL", "")
	t.Setenv("SIDELINES_LANGUAGE", "")
	t.Setenv("SIDELINES_NTFY_TOPIC", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		server:     srv,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[server]\nbase_url = %q\nconnect_timeout_seconds = %d\nrequest_timeout_seconds = %d\n\n"+
			"[job]\nlanguage = %q\n\n"+
			"[paths]\nspool_dir = %q\ndownload_dir = %q\nlog_dir = %q\n\n"+
			"[notifications]\nntfy_topic = %q\n",
		cfg.Server.BaseURL,
		cfg.Server.ConnectTimeoutSeconds,
		cfg.Server.RequestTimeoutSeconds,
		cfg.Job.Language,
		cfg.Paths.SpoolDir,
		cfg.Paths.DownloadDir,
		cfg.Paths.LogDir,
		cfg.Notifications.NtfyTopic,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
