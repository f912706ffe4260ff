// Package panel serves the device panel: a small REST API plus a WebSocket
// channel carrying the panel command protocol (connectDevice, updateDevices, ...).
package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/flutterfly/devbridge/pkg/adb"
	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/flutter"
	"github.com/flutterfly/devbridge/pkg/parser"
	"github.com/flutterfly/devbridge/pkg/poller"
	"github.com/flutterfly/devbridge/pkg/util"
)

// Devices is the registry surface the panel drives; *adb.Registry implements it
type Devices interface {
	Connect(ctx context.Context, address, port string) (string, error)
	DisconnectAll(ctx context.Context) (string, error)
	DisconnectOne(ctx context.Context, address string) (string, error)
	Refresh(ctx context.Context) ([]adb.DeviceEntry, error)
	Snapshot() []adb.DeviceEntry
}

// Status is the poller surface the panel reads; *poller.Poller implements it
type Status interface {
	State() poller.State
	Subscribe(fn poller.Listener) func()
}

// Options configures a Server
type Options struct {
	Host string
	Port int

	Devices Devices
	// Status is optional; without it /api/status reports the initial offline state
	Status Status

	Flutter    *flutter.Catalog
	Launcher   flutter.Launcher
	ProjectDir string
}

// Server is the panel HTTP and WebSocket server
type Server struct {
	opts     Options
	router   *mux.Router
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[string]*client

	httpServer  *http.Server
	listener    net.Listener
	unsubscribe func()
}

// NewServer creates a server and subscribes it to poll updates
func NewServer(opts Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkLocalOrigin,
		},
	}
	s.router = s.routes()

	if opts.Status != nil {
		s.unsubscribe = opts.Status.Subscribe(func(state poller.State) {
			s.Broadcast(pollState(state))
			s.Broadcast(updateDevices(s.opts.Devices.Snapshot()))
		})
	}
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/devices", s.handleListDevices).Methods("GET")
	api.HandleFunc("/devices/refresh", s.handleRefresh).Methods("POST")
	api.HandleFunc("/devices/connect", s.handleConnect).Methods("POST")
	api.HandleFunc("/devices", s.handleDisconnectAll).Methods("DELETE")
	api.HandleFunc("/devices/{address}", s.handleDisconnect).Methods("DELETE")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	// Panel command protocol
	router.HandleFunc("/ws", s.handleWebSocket)

	return router
}

// Handler returns the HTTP handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	util.GetLogger().Info("Panel listening", "addr", ln.Addr().String())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.GetLogger().Error(err, "Panel server error")
		}
	}()
	return nil
}

// Addr returns the listening address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes every client and shuts the HTTP server down
func (s *Server) Stop(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.cancel()

	s.mu.Lock()
	for _, c := range s.clients {
		c.Close()
	}
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ClientCount returns the number of connected panels
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends msg to every connected panel
func (s *Server) Broadcast(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		util.GetLogger().Error(err, "Failed to marshal panel message", "command", msg.Command)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.Send(data)
	}
}

// Notify posts a status message to every connected panel
func (s *Server) Notify(message, kind string) {
	s.Broadcast(statusMessage(message, kind))
}

func (s *Server) sendTo(c *client, msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		util.GetLogger().Error(err, "Failed to marshal panel message", "command", msg.Command)
		return
	}
	c.Send(data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.GetLogger().V(1).Info("WebSocket upgrade failed", "error", err.Error())
		return
	}

	c := newClient(conn, s.handleMessage, s.removeClient)
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	c.start()

	util.GetLogger().V(1).Info("Panel connected", "client", c.id)

	// Initial state
	s.sendTo(c, pollState(s.currentState()))
	s.sendTo(c, updateDevices(s.opts.Devices.Snapshot()))
}

func (s *Server) removeClient(id string) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
	util.GetLogger().V(1).Info("Panel disconnected", "client", id)
}

// handleMessage dispatches one inbound command
func (s *Server) handleMessage(c *client, data []byte) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		s.sendTo(c, toast("Invalid message: "+err.Error(), TypeError))
		return
	}

	ctx := s.ctx
	switch in.Command {
	case CmdConnectDevice:
		s.connectDevice(ctx, c, in.IP, in.Port)
	case CmdRefreshDevices:
		s.refreshDevices(ctx, c)
	case CmdDisconnectDevice:
		s.disconnectDevice(ctx, c, in.DeviceID)
	case CmdRunFlutterCommand:
		s.runFlutterCommand(ctx, c, in.CommandID, in.Mode)
	default:
		s.sendTo(c, toast(fmt.Sprintf("Unknown command: %q", in.Command), TypeError))
	}
}

func (s *Server) connectDevice(ctx context.Context, c *client, ip, port string) {
	target := strings.TrimSpace(ip) + ":" + strings.TrimSpace(port)
	s.sendTo(c, statusMessage("Connecting to "+target, TypeInfo))

	msg, err := s.opts.Devices.Connect(ctx, ip, port)
	if err != nil {
		s.sendTo(c, toast(connectFailureMessage(ip, port, err), TypeError))
		if output, _ := domain.Detail(err); output != "" {
			s.sendTo(c, statusMessage(output, TypeError))
		}
		return
	}

	s.sendTo(c, toast(msg, TypeSuccess))
	s.Broadcast(updateDevices(s.opts.Devices.Snapshot()))
}

func (s *Server) refreshDevices(ctx context.Context, c *client) {
	devices, err := s.opts.Devices.Refresh(ctx)
	if err != nil {
		s.sendTo(c, toast(describe(err), TypeError))
		return
	}
	s.Broadcast(updateDevices(devices))
}

func (s *Server) disconnectDevice(ctx context.Context, c *client, deviceID string) {
	var (
		msg string
		err error
	)
	if strings.TrimSpace(deviceID) == "" {
		msg, err = s.opts.Devices.DisconnectAll(ctx)
	} else {
		msg, err = s.opts.Devices.DisconnectOne(ctx, deviceID)
	}
	if err != nil {
		s.sendTo(c, toast(describe(err), TypeError))
		return
	}

	if msg == "" {
		msg = "Disconnected"
	}
	s.sendTo(c, toast(msg, TypeSuccess))
	s.Broadcast(updateDevices(s.opts.Devices.Snapshot()))
}

func (s *Server) runFlutterCommand(ctx context.Context, c *client, id, modeName string) {
	if s.opts.Flutter == nil || s.opts.Launcher == nil {
		s.sendTo(c, toast("Flutter commands are not available", TypeError))
		return
	}

	mode, err := flutter.ParseBuildMode(modeName)
	if err != nil {
		s.sendTo(c, toast(describe(err), TypeError))
		return
	}
	line, err := s.opts.Flutter.CommandLine(id, mode)
	if err != nil {
		s.sendTo(c, toast(describe(err), TypeError))
		return
	}

	s.sendTo(c, statusMessage("Running "+line, TypeInfo))

	// Builds and `flutter run` outlive a single message
	go func() {
		result, err := s.opts.Flutter.Run(ctx, s.opts.Launcher, id, mode, s.opts.ProjectDir)
		if err != nil {
			s.sendTo(c, statusMessage(describe(err), TypeError))
			return
		}
		s.sendTo(c, statusMessage(fmt.Sprintf("%s finished in %s", line, result.Duration.Round(time.Millisecond)), TypeSuccess))
	}()
}

func (s *Server) currentState() poller.State {
	if s.opts.Status == nil {
		return poller.State{Connectivity: poller.Offline, Summary: poller.SummaryOffline}
	}
	return s.opts.Status.State()
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "devbridge-panel",
		"timestamp": time.Now().Unix(),
	})
}

// handleListDevices handles GET /api/devices
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"devices": nonNil(s.opts.Devices.Snapshot()),
	})
}

// handleRefresh handles POST /api/devices/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	devices, err := s.opts.Devices.Refresh(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.Broadcast(updateDevices(devices))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"devices": nonNil(devices),
	})
}

// handleConnect handles POST /api/devices/connect
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, domain.NewInvalidArgument("connect", "body", err.Error()))
		return
	}

	msg, err := s.opts.Devices.Connect(r.Context(), req.IP, req.Port)
	if err != nil {
		s.respondError(w, err)
		return
	}

	devices := s.opts.Devices.Snapshot()
	s.Broadcast(updateDevices(devices))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": msg,
		"devices": nonNil(devices),
	})
}

// handleDisconnectAll handles DELETE /api/devices
func (s *Server) handleDisconnectAll(w http.ResponseWriter, r *http.Request) {
	msg, err := s.opts.Devices.DisconnectAll(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.Broadcast(updateDevices(s.opts.Devices.Snapshot()))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"message": msg})
}

// handleDisconnect handles DELETE /api/devices/{address}
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	msg, err := s.opts.Devices.DisconnectOne(r.Context(), address)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.Broadcast(updateDevices(s.opts.Devices.Snapshot()))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"message": msg})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.currentState())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	output, hint := domain.Detail(err)
	s.respondJSON(w, httpStatus(err), ErrorResponse{
		Error:  err.Error(),
		Kind:   string(domain.KindOf(err)),
		Output: output,
		Hint:   hint,
	})
}

func httpStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindToolNotFound:
		return http.StatusServiceUnavailable
	case domain.KindCommandFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// connectFailureMessage names the manual command so the user can retry by hand
func connectFailureMessage(ip, port string, err error) string {
	manual := "adb connect " + parser.JoinAddress(ip, port)
	return fmt.Sprintf("Connection failed: %s. Try manually: %s", describe(err), manual)
}

// describe renders err with its hint, if any
func describe(err error) string {
	_, hint := domain.Detail(err)
	if hint != "" {
		return err.Error() + " (" + hint + ")"
	}
	return err.Error()
}

func nonNil(devices []adb.DeviceEntry) []adb.DeviceEntry {
	if devices == nil {
		return []adb.DeviceEntry{}
	}
	return devices
}

// checkLocalOrigin accepts same-host pages and non-browser clients
func checkLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	h, _ := parser.SplitAddress(host)
	return h == "localhost" || h == "127.0.0.1" || h == "::1" || host == r.Host
}
