package video

import (
	"context"
	"errors"
	"log"
	"sync"
)

var (
	errNotJoined     = errors.New("video: client not joined to a channel")
	errAlreadyJoined = errors.New("video: client already joined")
	errClientClosed  = errors.New("video: client closed")
	errUnknownUser   = errors.New("video: unknown remote user")
)

// Hub is the in-process realisation of the Client contract. It keeps
// channel presence and relays publish/unpublish/left notifications and
// data-stream messages between the clients of one channel. Fan-out for
// one channel happens under its lock, so every receiver observes a
// sender's messages in send order — the reliable+ordered guarantee the
// sessions rely on.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[string]*HubClient
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[string]*HubClient)}
}

// NewClient returns an unjoined client backed by this hub.
func (h *Hub) NewClient() *HubClient {
	return &HubClient{
		hub:       h,
		events:    make(chan Event, 256),
		published: make(map[MediaType]bool),
	}
}

// HubClient implements Client against the in-process hub.
type HubClient struct {
	hub *Hub

	mu         sync.Mutex
	channel    string
	uid        string
	joined     bool
	closed     bool
	published  map[MediaType]bool
	nextStream int

	events chan Event
}

func (c *HubClient) Join(ctx context.Context, appID, channel, token, uid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClientClosed
	}
	if c.joined {
		c.mu.Unlock()
		return errAlreadyJoined
	}
	c.joined = true
	c.channel = channel
	c.uid = uid
	c.mu.Unlock()

	h := c.hub
	h.mu.Lock()
	peers, ok := h.channels[channel]
	if !ok {
		peers = make(map[string]*HubClient)
		h.channels[channel] = peers
	}
	// A late joiner is told about everything the peers already publish,
	// the way the vendor replays current publications on join.
	for _, peer := range peers {
		peer.mu.Lock()
		for media := range peer.published {
			c.deliver(UserPublished{UID: peer.uid, Media: media})
		}
		peer.mu.Unlock()
	}
	peers[uid] = c
	h.mu.Unlock()
	return nil
}

func (c *HubClient) Leave(ctx context.Context) error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return nil
	}
	channel, uid := c.channel, c.uid
	c.joined = false
	c.published = make(map[MediaType]bool)
	c.mu.Unlock()

	h := c.hub
	h.mu.Lock()
	if peers, ok := h.channels[channel]; ok {
		delete(peers, uid)
		for _, peer := range peers {
			peer.deliver(UserLeft{UID: uid})
		}
		if len(peers) == 0 {
			delete(h.channels, channel)
		}
	}
	h.mu.Unlock()
	return nil
}

func (c *HubClient) Publish(ctx context.Context, tracks ...Track) error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return errNotJoined
	}
	channel, uid := c.channel, c.uid
	media := make([]MediaType, 0, len(tracks))
	for _, t := range tracks {
		c.published[t.Kind()] = true
		media = append(media, t.Kind())
	}
	c.mu.Unlock()

	h := c.hub
	h.mu.Lock()
	for _, peer := range h.channels[channel] {
		if peer == c {
			continue
		}
		for _, m := range media {
			peer.deliver(UserPublished{UID: uid, Media: m})
		}
	}
	h.mu.Unlock()
	return nil
}

func (c *HubClient) Subscribe(ctx context.Context, uid string, media MediaType) error {
	// The media plane stays with the vendor; the hub only validates
	// that the publisher is still present.
	c.mu.Lock()
	channel := c.channel
	joined := c.joined
	c.mu.Unlock()
	if !joined {
		return errNotJoined
	}

	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[channel][uid]; !ok {
		return errUnknownUser
	}
	return nil
}

func (c *HubClient) CreateDataStream(ctx context.Context, reliable, ordered bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, errClientClosed
	}
	if !c.joined {
		return 0, errNotJoined
	}
	id := c.nextStream
	c.nextStream++
	return id, nil
}

func (c *HubClient) SendStreamMessage(ctx context.Context, streamID int, data []byte) error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return errNotJoined
	}
	channel, uid := c.channel, c.uid
	c.mu.Unlock()

	msg := make([]byte, len(data))
	copy(msg, data)

	h := c.hub
	h.mu.Lock()
	for _, peer := range h.channels[channel] {
		if peer == c {
			continue
		}
		peer.deliver(StreamMessage{UID: uid, Data: msg})
	}
	h.mu.Unlock()
	return nil
}

func (c *HubClient) Events() <-chan Event {
	return c.events
}

// Close leaves the channel if needed and stops event delivery.
func (c *HubClient) Close() {
	_ = c.Leave(context.Background())
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.events)
	c.mu.Unlock()
}

func (c *HubClient) deliver(ev Event) {
	// Held across the send so Close cannot close the channel under a
	// concurrent delivery. The send never blocks.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		log.Printf("video: dropping event for %s: receiver too slow", c.uid)
	}
}
