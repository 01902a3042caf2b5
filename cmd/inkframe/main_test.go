package main

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"inkframe/internal/config"
	"inkframe/internal/daemon"
	"inkframe/internal/display"
	"inkframe/internal/ipc"
	"inkframe/internal/logging"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	socketPath string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "inkframe.toml")
	writeTestConfig(t, configPath, base)
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	logger := logging.NewNop()
	driver, err := display.Open(cfg, logger)
	if err != nil {
		t.Fatalf("display.Open: %v", err)
	}
	d, err := daemon.New(cfg, logger, daemon.Dependencies{Driver: driver}, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		socketPath: socketPath,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path, base string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
image_dir = %q
fallback_image = %q
cast_path = %q
log_dir = %q

[display]
driver = "png"
png_path = %q

[remote]
enabled = false
`,
		filepath.Join(base, "photos"),
		filepath.Join(base, "fallback.png"),
		filepath.Join(base, "cast", "cast.img"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "out", "frame.png"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := imaging.Save(imaging.New(w, h, color.NRGBA{R: 200, G: 40, A: 255}), path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestControlCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"next"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	requireContains(t, out, "advancing")
	if !env.daemon.Playback().Snapshot().Advance {
		t.Fatal("expected advance request")
	}

	out, _, err = runCLI(t, []string{"pause"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	requireContains(t, out, "paused")

	out, _, err = runCLI(t, []string{"pause"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("pause again: %v", err)
	}
	requireContains(t, out, "playing")

	if _, _, err := runCLI(t, []string{"previous"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if !env.daemon.Playback().Snapshot().Reverse {
		t.Fatal("expected reverse request")
	}
}

func TestCastAndResume(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "postcard.png")
	writeImage(t, src, 30, 20)

	out, _, err := runCLI(t, []string{"cast", src}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	requireContains(t, out, "Casting postcard.png")
	if !env.daemon.Playback().Snapshot().Casting() {
		t.Fatal("expected cast override")
	}

	if _, _, err := runCLI(t, []string{"resume"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if env.daemon.Playback().Snapshot().Casting() {
		t.Fatal("expected cast cleared")
	}

	if _, _, err := runCLI(t, []string{"cast"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected cast without argument to fail")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"== Frame ==", "Driver:", "png", "== Slideshow ==", "Frames rendered", "disabled"} {
		requireContains(t, out, want)
	}

	out, _, err = runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	requireContains(t, out, `"driver": "png"`)
}

func TestCommandsReportMissingDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "nope.sock")

	_, _, err := runCLI(t, []string{"next"}, missing, env.configPath)
	if err == nil {
		t.Fatal("expected error without daemon")
	}
	requireContains(t, err.Error(), "inkframe run")
}

func TestRenderCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "portrait.png")
	writeImage(t, src, 480, 1200)
	output := filepath.Join(env.baseDir, "preview.png")

	out, _, err := runCLI(t, []string{"render", src, output}, "", env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, out, "Scaled to 800x320 at 0,80")
	requireContains(t, out, "rotated: yes")

	img, err := imaging.Open(output)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 800 || got.Y != 480 {
		t.Fatalf("expected 800x480 canvas, got %v", got)
	}

	dithered := filepath.Join(env.baseDir, "dithered.png")
	if _, _, err := runCLI(t, []string{"render", "--dither", "--no-caption", src, dithered}, "", env.configPath); err != nil {
		t.Fatalf("render --dither: %v", err)
	}
	if _, err := os.Stat(dithered); err != nil {
		t.Fatalf("expected dithered output: %v", err)
	}

	if _, _, err := runCLI(t, []string{"render", filepath.Join(env.baseDir, "missing.png")}, "", env.configPath); err == nil {
		t.Fatal("expected missing input to fail")
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, "", env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "Log directory:")
	requireContains(t, out, "[WARN]")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, "", env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}
