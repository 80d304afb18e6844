package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/monowheel/pkg/framework"
	"github.com/robotalks/monowheel/pkg/msgs"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Client is the remote side: it discovers vehicles, watches their
// state and sends commands.
type Client struct {
	Queue           *Queue
	DiscoverTimeout time.Duration
}

// NewClient creates a Client.
func NewClient(brokerURL string) (*Client, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Client{Queue: q, DiscoverTimeout: DefaultDiscoverTimeout}, nil
}

// Connect connects to the broker.
func (c *Client) Connect(ctx context.Context) error {
	return c.Queue.ConnectWait(ctx)
}

// Close implements io.Closer.
func (c *Client) Close() error {
	return c.Queue.Close()
}

// Discover collects the retained meta of online vehicles until
// DiscoverTimeout.
func (c *Client) Discover(ctx context.Context) ([]Info, error) {
	var (
		lock  sync.Mutex
		found = make(map[string]Info)
	)
	sub := c.Queue.Sub("+/+/"+TopicMeta, func(topic string, payload []byte) {
		info, ok := ParseMeta(topic, payload)
		if !ok {
			return
		}
		lock.Lock()
		found[info.Ref.Name()] = info
		lock.Unlock()
	})
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	select {
	case <-time.After(dur):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	lock.Lock()
	defer lock.Unlock()
	res := make([]Info, 0, len(found))
	for _, info := range found {
		res = append(res, info)
	}
	return res, nil
}

// Send sends a command to the vehicle.
func (c *Client) Send(ctx context.Context, ref Ref, msg fx.Message) error {
	data, err := msgs.Encode(msg)
	if err != nil {
		return err
	}
	return WaitToken(ctx, c.Queue.PubWith(ref.Topic(TopicCmd), data, 1, false))
}

// Watch calls fn with every state published by the vehicle.
func (c *Client) Watch(ref Ref, fn func(*msgs.State)) *Subscription {
	return c.Queue.Sub(ref.Topic(TopicState), func(topic string, payload []byte) {
		msg, err := msgs.Decode(payload)
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		if state, ok := msg.(*msgs.State); ok {
			fn(state)
		}
	})
}

// LatestState waits for the next state of the vehicle.
func (c *Client) LatestState(ctx context.Context, ref Ref) (*msgs.State, error) {
	stateCh := make(chan *msgs.State, 1)
	sub := c.Watch(ref, func(s *msgs.State) {
		select {
		case stateCh <- s:
		default:
		}
	})
	defer sub.Close()
	select {
	case s := <-stateCh:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ParseMeta parses a TYPE/ID/meta message. Empty payloads mark a
// vehicle gone offline and are rejected.
func ParseMeta(topic string, payload []byte) (Info, bool) {
	if len(payload) == 0 || !strings.HasSuffix(topic, "/"+TopicMeta) {
		return Info{}, false
	}
	ref, ok := ParseRef(strings.TrimSuffix(topic, "/"+TopicMeta))
	if !ok {
		return Info{}, false
	}
	info := Info{Ref: ref}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("%s: invalid meta: %v", topic, err)
		return Info{}, false
	}
	return info, true
}

// FormatInfo formats Info for display.
func FormatInfo(info Info) string {
	if info.Meta.Description == "" {
		return info.Ref.Name()
	}
	return fmt.Sprintf("%s: %s", info.Ref.Name(), info.Meta.Description)
}
