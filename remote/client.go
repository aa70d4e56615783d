package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/greenroom-actors/greenroom"
)

// ClientConfig tunes a Client.
type ClientConfig struct {
	DialTimeout time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	return c
}

// DefaultClientConfig returns sane Client defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{}.withDefaults()
}

// Client is a connection to one remote node's Server, implementing
// greenroom.RemoteTransport.
type Client struct {
	cfg       ClientConfig
	conn      *grpc.ClientConn
	rpc       ActorTransportClient
	localNode string
	nodeAddr  string
}

// Dial connects to nodeAddr. localNode is this process's own dial address,
// stamped onto every outgoing message's Sender.Node so the remote side can
// reply.
func Dial(nodeAddr string, localNode string, cfg ClientConfig) (*Client, error) {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	conn, err := grpc.DialContext(ctx, nodeAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s: %w", nodeAddr, err)
	}
	return &Client{
		cfg:       cfg,
		conn:      conn,
		rpc:       NewActorTransportClient(conn),
		localNode: localNode,
		nodeAddr:  nodeAddr,
	}, nil
}

// Dialer returns a func suitable for System.SetRemoteDialer: it dials a
// node address on first use and caches the connection for subsequent
// calls through the System's own remote-client map.
func Dialer(localNode string, cfg ClientConfig) func(string) (greenroom.RemoteTransport, error) {
	return func(node string) (greenroom.RemoteTransport, error) {
		return Dial(node, localNode, cfg)
	}
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send implements greenroom.RemoteTransport.
func (c *Client) Send(ctx context.Context, target greenroom.Address, msg greenroom.Message) error {
	var payloadBytes []byte
	if msg.Payload != nil {
		b, err := json.Marshal(msg.Payload)
		if err != nil {
			return fmt.Errorf("remote: marshal payload: %w", err)
		}
		payloadBytes = b
	}
	req := &SendMessageRequest{
		TargetID:     target.ID,
		Type:         msg.Type,
		PayloadBytes: payloadBytes,
		SenderID:     msg.Sender.ID,
		SenderNode:   c.localNode,
	}
	resp, err := c.rpc.SendMessage(ctx, req)
	if err != nil {
		return fmt.Errorf("remote: send: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("remote: send to %s: %s", target.ID, resp.Error)
	}
	return nil
}

// Spawn implements greenroom.RemoteTransport.
func (c *Client) Spawn(ctx context.Context, actorClass string, mailboxType greenroom.MailboxType) (greenroom.Address, error) {
	mbName := "default"
	if mailboxType == greenroom.MailboxPriority {
		mbName = "priority"
	}
	resp, err := c.rpc.SpawnActor(ctx, &SpawnActorRequest{ActorClassName: actorClass, MailboxType: mbName})
	if err != nil {
		return greenroom.Address{}, fmt.Errorf("remote: spawn: %w", err)
	}
	if !resp.Success {
		return greenroom.Address{}, fmt.Errorf("remote: spawn %s: %s", actorClass, resp.Error)
	}
	return greenroom.Address{ID: resp.ActorID, Node: c.nodeAddr}, nil
}

// Stop implements greenroom.RemoteTransport.
func (c *Client) Stop(ctx context.Context, target greenroom.Address) error {
	resp, err := c.rpc.StopActor(ctx, &StopActorRequest{ActorID: target.ID})
	if err != nil {
		return fmt.Errorf("remote: stop: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("remote: stop %s: %s", target.ID, resp.Error)
	}
	return nil
}

// Watch subscribes to lifecycle events for a remote actor, returning a
// channel of events that closes when the stream ends (ctx cancellation,
// server shutdown, or the underlying connection failing).
func (c *Client) Watch(ctx context.Context, actorID, watcherID string) (<-chan *WatchActorEvent, error) {
	stream, err := c.rpc.WatchActor(ctx, &WatchActorRequest{ActorID: actorID, WatcherID: watcherID})
	if err != nil {
		return nil, fmt.Errorf("remote: watch: %w", err)
	}
	out := make(chan *WatchActorEvent, 16)
	go func() {
		defer close(out)
		for {
			ev, err := stream.Recv()
			if err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
