package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/greenroom-actors/greenroom"
)

// ServerConfig tunes a Server. Keepalive fields mirror the pattern the rest
// of the corpus's gRPC servers use for long-lived streaming connections
// (WatchActor in particular).
type ServerConfig struct {
	ListenAddr        string
	ServerPingTime    time.Duration
	ServerPingTimeout time.Duration
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:0"
	}
	if c.ServerPingTime <= 0 {
		c.ServerPingTime = 5 * time.Minute
	}
	if c.ServerPingTimeout <= 0 {
		c.ServerPingTimeout = time.Minute
	}
	return c
}

// DefaultServerConfig returns a ServerConfig listening on an ephemeral
// loopback port.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{}.withDefaults()
}

// Server exposes one greenroom.System over gRPC so remote nodes can send
// to, spawn on, stop, and watch its actors.
type Server struct {
	UnimplementedActorTransportServer

	cfg    ServerConfig
	system *greenroom.System

	grpcServer *grpc.Server
	listener   net.Listener

	watchMu  sync.Mutex
	watchers map[string]map[string]chan *WatchActorEvent
}

// NewServer builds a Server around system. It registers itself as a
// lifecycle-event listener on system so WatchActor can stream events as
// they happen, but does not start listening until Start is called.
func NewServer(system *greenroom.System, cfg ServerConfig) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:      cfg,
		system:   system,
		watchers: make(map[string]map[string]chan *WatchActorEvent),
	}
	system.OnLifecycleEvent(s.dispatchEvent)
	return s
}

// Start binds the configured listen address and begins serving in the
// background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("remote: listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = lis
	s.grpcServer = grpc.NewServer(grpc.KeepaliveParams(keepalive.ServerParameters{
		Time:    s.cfg.ServerPingTime,
		Timeout: s.cfg.ServerPingTimeout,
	}))
	RegisterActorTransportServer(s.grpcServer, s)
	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			greenroom.Logger().Info("remote server stopped serving", slog.Any("error", err))
		}
	}()
	return nil
}

// Addr returns the actual listen address, including the port the OS chose
// when ListenAddr ended in ":0". Only valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down, letting in-flight RPCs finish.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

func (s *Server) SendMessage(ctx context.Context, in *SendMessageRequest) (*SendMessageResponse, error) {
	var payload interface{}
	if len(in.PayloadBytes) > 0 {
		if err := json.Unmarshal(in.PayloadBytes, &payload); err != nil {
			return &SendMessageResponse{Success: false, Error: err.Error()}, nil
		}
	}
	target := greenroom.Address{ID: in.TargetID}
	if !s.system.Exists(target) {
		return &SendMessageResponse{Success: false, Error: greenroom.ErrUnknownTarget.Error()}, nil
	}
	sender := greenroom.Address{}
	if in.SenderID != "" {
		sender = greenroom.Address{ID: in.SenderID, Node: in.SenderNode}
	}
	s.system.Send(target, greenroom.Message{Type: in.Type, Payload: payload, Sender: sender})
	return &SendMessageResponse{Success: true}, nil
}

func (s *Server) SpawnActor(ctx context.Context, in *SpawnActorRequest) (*SpawnActorResponse, error) {
	producer, ok := s.system.LookupActorClass(in.ActorClassName)
	if !ok {
		return &SpawnActorResponse{Success: false, Error: greenroom.ErrUnknownActorClass.Error()}, nil
	}
	mailboxType := greenroom.MailboxDefault
	if in.MailboxType == "priority" {
		mailboxType = greenroom.MailboxPriority
	}
	addr := s.system.Spawn(greenroom.NewProps(producer, greenroom.WithMailboxType(mailboxType)))
	if addr.IsZero() {
		return &SpawnActorResponse{Success: false, Error: "spawn failed"}, nil
	}
	return &SpawnActorResponse{Success: true, ActorID: addr.ID}, nil
}

func (s *Server) StopActor(ctx context.Context, in *StopActorRequest) (*StopActorResponse, error) {
	s.system.Stop(greenroom.Address{ID: in.ActorID})
	return &StopActorResponse{Success: true}, nil
}

func (s *Server) WatchActor(req *WatchActorRequest, stream ActorTransport_WatchActorServer) error {
	ch := make(chan *WatchActorEvent, 16)
	s.addWatcher(req.ActorID, req.WatcherID, ch)
	defer s.removeWatcher(req.ActorID, req.WatcherID)

	if s.system.Exists(greenroom.Address{ID: req.ActorID}) {
		if err := stream.Send(&WatchActorEvent{ActorID: req.ActorID, EventType: EventStarted}); err != nil {
			return err
		}
	}

	ctx := stream.Context()
	for {
		select {
		case ev := <-ch:
			if err := stream.Send(ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) dispatchEvent(addr greenroom.Address, event greenroom.LifecycleEvent, err error) {
	var ev *WatchActorEvent
	switch event {
	case greenroom.LifecycleStarted:
		ev = &WatchActorEvent{ActorID: addr.ID, EventType: EventStarted}
	case greenroom.LifecycleStopped:
		ev = &WatchActorEvent{ActorID: addr.ID, EventType: EventStopped}
	case greenroom.LifecycleFailed:
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		ev = &WatchActorEvent{ActorID: addr.ID, EventType: EventError, Error: msg}
	default:
		return
	}

	s.watchMu.Lock()
	chans := make([]chan *WatchActorEvent, 0, len(s.watchers[addr.ID]))
	for _, ch := range s.watchers[addr.ID] {
		chans = append(chans, ch)
	}
	s.watchMu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Server) addWatcher(actorID, watcherID string, ch chan *WatchActorEvent) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watchers[actorID] == nil {
		s.watchers[actorID] = make(map[string]chan *WatchActorEvent)
	}
	s.watchers[actorID][watcherID] = ch
}

func (s *Server) removeWatcher(actorID, watcherID string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if m, ok := s.watchers[actorID]; ok {
		delete(m, watcherID)
		if len(m) == 0 {
			delete(s.watchers, actorID)
		}
	}
}
