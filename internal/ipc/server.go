package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"inkframe/internal/daemon"
	"inkframe/internal/logging"
)

// ServiceName is the RPC receiver name clients call into.
const ServiceName = "Frame"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI commands may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart inkframe if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may confuse CLI commands"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Next(_ NextRequest, resp *CommandResponse) error {
	s.daemon.Next()
	resp.Paused = s.daemon.Playback().Paused()
	resp.Message = "advancing to next image"
	s.log().Debug("next requested via IPC")
	return nil
}

func (s *service) Previous(_ PreviousRequest, resp *CommandResponse) error {
	s.daemon.Previous()
	resp.Paused = s.daemon.Playback().Paused()
	resp.Message = "going back one image"
	s.log().Debug("previous requested via IPC")
	return nil
}

func (s *service) TogglePause(_ TogglePauseRequest, resp *CommandResponse) error {
	resp.Paused = s.daemon.TogglePause()
	if resp.Paused {
		resp.Message = "slideshow paused"
	} else {
		resp.Message = "slideshow playing"
	}
	return nil
}

func (s *service) Resume(_ ResumeRequest, resp *CommandResponse) error {
	s.daemon.Resume()
	resp.Paused = false
	resp.Message = "slideshow resumed"
	return nil
}

func (s *service) Cast(req CastRequest, resp *CastResponse) error {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return errors.New("cast requires an image path")
	}
	if err := s.daemon.CastFile(s.ctx, path); err != nil {
		return err
	}
	snapshot := s.daemon.Playback().Snapshot()
	resp.Target = snapshot.CastOverride
	resp.Generation = snapshot.Generation
	s.log().Info("image cast via IPC",
		logging.String(logging.FieldEventType, "cast"),
		logging.String(logging.FieldPath, path))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	*resp = StatusResponse{
		Running:    status.Running,
		PID:        status.PID,
		Driver:     status.Driver,
		ImageDir:   status.ImageDir,
		LockPath:   status.LockPath,
		LogPath:    status.LogPath,
		RemoteAddr: status.RemoteAddr,
		Playback:   status.Playback,
		Slideshow:  status.Slideshow,
		LastError:  status.LastError,
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
