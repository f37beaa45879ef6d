// Package video manages the lifecycle of real-time meeting sessions:
// one Session per user in a channel, driven through an explicit state
// machine instead of ad hoc event listeners. The vendor RTC contract
// (join/leave/publish/subscribe/data streams and their notifications)
// is modeled by the Client interface and treated as fixed; the media
// pipeline itself stays with the vendor.
package video

import "context"

type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// Track is an exclusively-owned local capture resource. Close releases
// the device and is safe to call more than once.
type Track interface {
	Kind() MediaType
	SetEnabled(enabled bool)
	Enabled() bool
	Close()
}

// Devices acquires the local capture resources published into a
// channel.
type Devices interface {
	OpenMicrophone() (Track, error)
	OpenCamera() (Track, error)
}

// Event is a notification from the channel. The concrete types mirror
// the vendor's user-published / user-unpublished / user-left /
// stream-message events.
type Event interface {
	isEvent()
}

type UserPublished struct {
	UID   string
	Media MediaType
}

type UserUnpublished struct {
	UID   string
	Media MediaType
}

type UserLeft struct {
	UID string
}

type StreamMessage struct {
	UID  string
	Data []byte
}

func (UserPublished) isEvent()   {}
func (UserUnpublished) isEvent() {}
func (UserLeft) isEvent()        {}
func (StreamMessage) isEvent()   {}

// Client is the vendor RTC connection for one user. Implementations
// must deliver events for a single sender in publish order; the
// reliable+ordered data stream carries that guarantee for chat.
type Client interface {
	Join(ctx context.Context, appID, channel, token, uid string) error
	Leave(ctx context.Context) error
	Publish(ctx context.Context, tracks ...Track) error
	Subscribe(ctx context.Context, uid string, media MediaType) error
	CreateDataStream(ctx context.Context, reliable, ordered bool) (int, error)
	SendStreamMessage(ctx context.Context, streamID int, data []byte) error
	Events() <-chan Event
	Close()
}
