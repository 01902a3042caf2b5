package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inkframe/internal/config"
	"inkframe/internal/daemon"
	"inkframe/internal/display"
	"inkframe/internal/ipc"
	"inkframe/internal/logging"
	"inkframe/internal/testsupport"
)

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()
	driver, err := display.Open(cfg, logger)
	if err != nil {
		t.Fatalf("display.Open: %v", err)
	}
	d, err := daemon.New(cfg, logger, daemon.Dependencies{Driver: driver}, filepath.Join(cfg.Paths.LogDir, "ipc-test.log"))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	if _, err := client.Next(); err != nil {
		t.Fatalf("Next RPC failed: %v", err)
	}
	if !d.Playback().Snapshot().Advance {
		t.Fatal("expected advance request after Next")
	}

	toggled, err := client.TogglePause()
	if err != nil {
		t.Fatalf("TogglePause RPC failed: %v", err)
	}
	if !toggled.Paused {
		t.Fatalf("expected paused, message=%s", toggled.Message)
	}

	src := filepath.Join(cfg.Paths.ImageDir, "postcard.png")
	testsupport.WriteImage(t, src, 30, 20)
	cast, err := client.Cast(src)
	if err != nil {
		t.Fatalf("Cast RPC failed: %v", err)
	}
	if cast.Target != cfg.Paths.CastPath || cast.Generation != 1 {
		t.Fatalf("unexpected cast response %+v", cast)
	}
	if _, err := client.Cast(""); err == nil {
		t.Fatal("expected empty cast path to fail")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon not running before Start")
	}
	if !status.Playback.Paused || status.Playback.CastOverride != cfg.Paths.CastPath {
		t.Fatalf("unexpected playback status %+v", status.Playback)
	}
	if status.Driver != config.DriverPNG {
		t.Fatalf("unexpected driver %q", status.Driver)
	}

	if _, err := client.Resume(); err != nil {
		t.Fatalf("Resume RPC failed: %v", err)
	}
	if d.Playback().Snapshot().Casting() {
		t.Fatal("expected cast cleared after Resume")
	}

	note, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification RPC failed: %v", err)
	}
	if note.Sent {
		t.Fatal("expected notification not sent without topic")
	}
}

func TestIPCServerRemovesSocketOnClose(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	driver, err := display.Open(cfg, nil)
	if err != nil {
		t.Fatalf("display.Open: %v", err)
	}
	d, err := daemon.New(cfg, nil, daemon.Dependencies{Driver: driver}, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(context.Background(), socket, d, nil)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	srv.Close()

	if _, err := os.Stat(socket); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed, err=%v", err)
	}
	if _, err := ipc.Dial(socket); err == nil {
		t.Fatal("expected dial to fail after close")
	}
}
