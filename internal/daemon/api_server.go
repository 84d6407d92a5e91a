package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"aerial/internal/api"
	"aerial/internal/config"
	"aerial/internal/logging"
	"aerial/internal/preflight"
	"aerial/internal/store"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/status", srv.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/subscriptions", srv.handleListSubscriptions).Methods(http.MethodGet)
	router.HandleFunc("/api/subscriptions", srv.handleCreateSubscription).Methods(http.MethodPost)
	router.HandleFunc("/api/subscriptions/{id:[0-9]+}", srv.handleUpdateSubscription).Methods(http.MethodPut)
	router.HandleFunc("/api/subscriptions/{id:[0-9]+}", srv.handleDeleteSubscription).Methods(http.MethodDelete)
	router.HandleFunc("/api/subscriptions/{id:[0-9]+}/channels", srv.handleSubscriptionChannels).Methods(http.MethodGet)
	router.HandleFunc("/api/subscriptions/{id:[0-9]+}/refresh", srv.handleRefreshSubscription).Methods(http.MethodPost)
	router.HandleFunc("/api/channels/{id:[0-9]+}/enable", srv.handleChannelEnable).Methods(http.MethodPost)
	router.HandleFunc("/api/check", srv.handleCheck).Methods(http.MethodPost)
	router.HandleFunc("/api/tasks", srv.handleListTasks).Methods(http.MethodGet)
	router.HandleFunc("/api/tasks/{id}", srv.handleGetTask).Methods(http.MethodGet)
	router.HandleFunc("/ws/tasks", srv.handleTaskFeed).Methods(http.MethodGet)

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	systemDeps := preflight.CheckSystemDeps(s.daemon.cfg)
	deps := make([]api.DependencyStatus, len(systemDeps))
	for i, dep := range systemDeps {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		Subscriptions: status.Subscriptions,
		Channels:      status.Channels,
		DatabasePath:  status.DatabasePath,
		LockFilePath:  status.LockFilePath,
		Dependencies:  deps,
	})
}

func (s *apiServer) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.daemon.store.ListSubscriptions(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubscriptionListResponse{Subscriptions: api.FromSubscriptions(subs)})
}

func (s *apiServer) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req api.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.Name == "" || req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "name and url are required")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	sub, err := s.daemon.store.CreateSubscription(r.Context(), &store.Subscription{
		Name:              req.Name,
		URL:               req.URL,
		UserAgent:         req.UserAgent,
		Headers:           req.Headers,
		AutoUpdateMinutes: req.AutoUpdateMinutes,
		Enabled:           enabled,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// First sync runs in the background; the caller polls the task.
	taskID, err := s.daemon.StartRefresh(r.Context(), sub.ID, sub.Name)
	if err != nil {
		s.logger.Warn("initial sync not scheduled", logging.Error(err))
	}
	s.writeJSON(w, http.StatusCreated, api.SubscriptionResponse{
		Subscription: api.FromSubscription(sub),
		TaskID:       taskID,
	})
}

func (s *apiServer) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req api.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := s.daemon.store.GetSubscription(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	sub.Name = req.Name
	sub.URL = strings.TrimSpace(req.URL)
	sub.UserAgent = req.UserAgent
	sub.Headers = req.Headers
	sub.AutoUpdateMinutes = req.AutoUpdateMinutes
	if req.Enabled != nil {
		sub.Enabled = *req.Enabled
	}
	if err := s.daemon.store.UpdateSubscription(r.Context(), sub); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.daemon.scheduler.reload()
	s.writeJSON(w, http.StatusOK, api.SubscriptionResponse{Subscription: api.FromSubscription(sub)})
}

func (s *apiServer) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.daemon.store.DeleteSubscription(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.daemon.scheduler.reload()
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "subscription deleted"})
}

func (s *apiServer) handleSubscriptionChannels(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.daemon.store.GetSubscription(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	channels, err := s.daemon.store.ChannelsBySubscription(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ChannelListResponse{Channels: api.FromChannels(channels)})
}

func (s *apiServer) handleRefreshSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	sub, err := s.daemon.store.GetSubscription(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	taskID, err := s.daemon.StartRefresh(r.Context(), sub.ID, sub.Name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.TaskStartedResponse{
		TaskID:  taskID,
		Message: "background sync started",
	})
}

func (s *apiServer) handleChannelEnable(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req api.ChannelEnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.daemon.store.SetChannelEnabled(r.Context(), id, req.Enabled); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "channel updated"})
}

func (s *apiServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ChannelIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "channel_ids is required")
		return
	}
	source := req.Source
	if source == "" {
		source = store.SourceManual
	}
	taskID, err := s.daemon.StartCheck(r.Context(), req.ChannelIDs, source)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.TaskStartedResponse{
		TaskID:  taskID,
		Message: fmt.Sprintf("checking %d channels", len(req.ChannelIDs)),
	})
}

func (s *apiServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tasksList, err := s.daemon.store.ListTasks(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.TaskListResponse{Tasks: api.FromTasks(tasksList)})
}

func (s *apiServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	task, err := s.daemon.store.GetTask(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TaskResponse{Task: api.FromTask(task)})
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *apiServer) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
