package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"diagramdb/src/auth"
	"diagramdb/src/directors"
	"diagramdb/src/engine"
	"diagramdb/src/helpers"
	"diagramdb/src/models"
	"diagramdb/src/settings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Server is the binary RPC server holding the diagram store.
type Server struct {
	Host        string
	Port        int
	AuthEnabled bool

	Listener          net.Listener
	ActiveConnections map[string]*Connection
	mu                sync.Mutex
	running           atomic.Bool
	wg                sync.WaitGroup

	users            *auth.UserStore
	diagramService   *directors.DiagramService
	scheduler        *engine.CheckpointScheduler
	shutdownDeadline time.Duration
	logger           *zap.SugaredLogger
}

// Connection represents an active client connection
type Connection struct {
	ID         string
	Conn       net.Conn
	Reader     *bufio.Reader
	Writer     *bufio.Writer
	User       string
	Authorized bool
	LastActive time.Time
	Logger     *zap.SugaredLogger
}

// InitServer initializes the diagramdb server: logger, storage engine,
// the store populated from the persisted snapshot, the checkpoint
// scheduler and the service layer. A corrupt or unreadable snapshot is
// fatal here: serving from a misread state is worse than refusing to
// start.
func InitServer(config *settings.Arguments) (*Server, error) {
	var logger *zap.Logger
	var err error

	if config.Debug {
		// Development configuration with more verbose output
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
		logger, err = z.Build()
	} else {
		// Production configuration
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create a sugared logger for easier API
	sugar := logger.Sugar()

	// Replace standard log with zap
	zap.ReplaceGlobals(logger)

	// Create snapshot storage
	snapshotStore, err := engine.NewSnapshotStore(config.DataDir, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	// Populate the store from disk before accepting any request
	files, err := snapshotStore.LoadSnapshotFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load files from disk: %w", err)
	}

	diagramStore := engine.NewDiagramStoreFrom(files, sugar)

	// Checkpoint the store on a fixed interval
	scheduler := engine.NewCheckpointScheduler(diagramStore, snapshotStore, config.CheckpointInterval, sugar)
	scheduler.Start()

	// Create service
	diagramService := directors.NewDiagramService(diagramStore, snapshotStore, config, sugar)

	server := &Server{
		Host:              config.Host,
		Port:              config.Port,
		AuthEnabled:       config.AuthEnabled,
		ActiveConnections: make(map[string]*Connection),
		users:             auth.NewUserStore(),
		diagramService:    diagramService,
		scheduler:         scheduler,
		shutdownDeadline:  config.ShutdownDeadline,
		logger:            sugar,
	}

	return server, nil
}

// Service exposes the diagram service for in-process callers.
func (s *Server) Service() *directors.DiagramService {
	return s.diagramService
}

// Logger exposes the server logger for collaborators like the proxy.
func (s *Server) Logger() *zap.SugaredLogger {
	return s.logger
}

// AddUser adds a user with the given password
func (s *Server) AddUser(username, password string) {
	if err := s.users.AddUser(username, password); err != nil {
		s.logger.Warnf("Could not add user %s: %v", username, err)
	}
}

// Start begins listening for incoming connections
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error starting server on %s: %w", addr, err)
	}

	s.Listener = listener
	s.running.Store(true)

	s.logger.Infof("DiagramService RPC server listening on %s", listener.Addr())

	go s.acceptConnections()

	return nil
}

// Addr returns the bound listener address. Valid after Start.
func (s *Server) Addr() string {
	if s.Listener == nil {
		return ""
	}

	return s.Listener.Addr().String()
}

// Stop gracefully shuts down the server: stop accepting, close the
// active connections, wait for the handlers to drain, then run the
// final checkpoint under the shutdown deadline.
func (s *Server) Stop() error {
	s.running.Store(false)

	var errs error

	// Close the listener
	if s.Listener != nil {
		errs = multierr.Append(errs, s.Listener.Close())
	}

	// Close all active connections
	s.mu.Lock()
	for id, conn := range s.ActiveConnections {
		conn.Conn.Close()
		delete(s.ActiveConnections, id)
	}
	s.mu.Unlock()

	s.wg.Wait()

	// Final checkpoint, bounded by the shutdown deadline. If the
	// deadline elapses, shutdown proceeds anyway; durability of the
	// last interval is best-effort.
	deadline := s.shutdownDeadline
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	if err := s.scheduler.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warnf("Final checkpoint did not finish within %s, proceeding with shutdown", deadline)
		} else {
			s.logger.Errorf("Final checkpoint failed: %v", err)
		}
	}

	// Flush any buffered log entries
	s.logger.Info("Server shutdown complete")
	s.logger.Sync()

	return errs
}

// acceptConnections handles incoming connection requests
func (s *Server) acceptConnections() {
	s.logger.Infow("Server started accepting connections",
		"host", s.Host,
		"port", s.Port)

	for s.running.Load() {
		conn, err := s.Listener.Accept()
		if err != nil {
			if s.running.Load() { // Only log if we're still supposed to be running
				s.logger.Errorw("Error accepting connection", "error", err)
			}

			if errors.Is(err, net.ErrClosed) {
				return
			}

			continue
		}

		s.wg.Add(1)

		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConnection(c)
		}(conn)
	}
}

// handleConnection processes a single client connection
func (s *Server) handleConnection(conn net.Conn) {
	connID := helpers.GenerateUUID()

	connLogger := s.logger.With(
		"connID", connID,
		"remoteAddr", conn.RemoteAddr().String())

	connection := &Connection{
		ID:         connID,
		Conn:       conn,
		Reader:     bufio.NewReader(conn),
		Writer:     bufio.NewWriter(conn),
		Authorized: !s.AuthEnabled, // If auth is disabled, connection is automatically authorized
		LastActive: time.Now(),
		Logger:     connLogger,
	}

	// Register the connection
	s.mu.Lock()
	s.ActiveConnections[connID] = connection
	s.mu.Unlock()

	// Ensure connection is removed when this function exits
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.ActiveConnections, connID)
		s.mu.Unlock()
		connLogger.Infow("Connection closed")
	}()

	connLogger.Infow("New connection received")

	for {
		body, err := readFrame(connection.Reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				connLogger.Errorw("Error reading from client", "error", err)
			}

			return
		}

		connection.LastActive = time.Now()

		status, payload := s.handleRequest(connection, body)
		if err := writeFrame(connection.Writer, status, payload); err != nil {
			connLogger.Errorw("Error writing to client", "error", err)
			return
		}
	}
}

// handleRequest dispatches one request frame. Request-level failures
// come back as Result values or error statuses; nothing here can take
// the process down.
func (s *Server) handleRequest(conn *Connection, body []byte) (byte, []byte) {
	if len(body) == 0 {
		return StatusError, []byte("empty request frame")
	}

	op, payload := body[0], body[1:]

	if op == OpAuth {
		return s.handleAuth(conn, payload)
	}

	if !conn.Authorized {
		return StatusError, []byte("authentication required")
	}

	switch op {
	case OpSave:
		file, err := engine.DecodeFile(payload)
		if err != nil {
			return StatusError, []byte(err.Error())
		}

		result, err := s.diagramService.SaveClassDiagram(file)
		if err != nil {
			return StatusError, []byte(err.Error())
		}

		return okResult(result.Value, result.Message)

	case OpGet:
		file, err := s.diagramService.GetClassDiagram(string(payload))
		if err != nil {
			if errors.Is(err, engine.ErrFileNotFound) {
				return StatusNotFound, []byte(directors.MsgNotFound)
			}

			return StatusError, []byte(err.Error())
		}

		data, err := engine.EncodeFile(file)
		if err != nil {
			return StatusError, []byte(err.Error())
		}

		return StatusOK, data

	case OpExists:
		result := s.diagramService.IsExistingClassDiagram(string(payload))

		return okResult(result.Value, result.Message)

	case OpDelete:
		result := s.diagramService.DeleteClassDiagram(string(payload))

		return okResult(result.Value, result.Message)

	case OpExport:
		result, err := s.diagramService.ExportClassDiagrams()
		if err != nil {
			return StatusError, []byte(err.Error())
		}

		return okResult(result.Value, result.Message)

	default:
		return StatusError, []byte(fmt.Sprintf("unknown opcode %d", op))
	}
}

// handleAuth verifies the "user\x00password" payload against the user
// store and authorizes the connection on success.
func (s *Server) handleAuth(conn *Connection, payload []byte) (byte, []byte) {
	if !s.AuthEnabled {
		return okResult(true, "authentication not required")
	}

	parts := bytes.SplitN(payload, []byte{0}, 2)
	if len(parts) != 2 {
		return StatusError, []byte("malformed auth payload")
	}

	username, password := string(parts[0]), string(parts[1])

	ok, err := s.users.VerifyCredentials(username, password)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return StatusError, []byte(err.Error())
	}

	if !ok {
		conn.Logger.Warnw("Authentication failed", "user", username)

		return okResult(false, "Authentication failed")
	}

	conn.Authorized = true
	conn.User = username
	conn.Logger.Infow("Client authenticated", "user", username)

	return okResult(true, "Authentication successful")
}

func okResult(value bool, message string) (byte, []byte) {
	data, err := bson.Marshal(models.Result{Value: value, Message: message})
	if err != nil {
		return StatusError, []byte(err.Error())
	}

	return StatusOK, data
}
