package mqtt

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/freeze-guard/internal/logic"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	outboxSize     = 64
)

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish in time.
var ErrPublishTimeout = errors.New("mqtt: publish timeout")

// Options configures a RealClient.
type Options struct {
	Broker   string
	Device   string
	ClientID string      // defaults to Device plus a random suffix
	TLS      *tls.Config // nil for a plain connection
	Handler  Handler     // receives every message under Device/#
	Logger   *slog.Logger
}

// RealClient is a paho connection that subscribes to the device's command
// topics and publishes its status.
type RealClient struct {
	client paho.Client
	device string
	broker string
	log    *slog.Logger

	mu     sync.Mutex
	outbox *outbox
}

// NewRealClient configures a client without connecting, so the handler's
// dependencies can be built around it before messages start arriving.
func NewRealClient(o Options) (*RealClient, error) {
	if o.Broker == "" {
		return nil, errors.New("mqtt: broker is required")
	}
	if o.Device == "" {
		return nil, errors.New("mqtt: device is required")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.ClientID == "" {
		o.ClientID = o.Device + "-" + uuid.NewString()[:8]
	}

	c := &RealClient{
		device: o.Device,
		broker: o.Broker,
		log:    o.Logger.With("component", "mqtt"),
		outbox: newOutbox(outboxSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		// Callbacks run on their own goroutines; the controller serializes
		// state changes and a slow weather fetch must not stall a status
		// request queued behind it.
		SetOrderMatters(false).
		SetWill(Topic(o.Device, SubAvailability), Offline, 1, true).
		SetOnConnectHandler(func(cl paho.Client) { c.onConnect(cl, o.Handler) }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.log.Warn("connection lost", "err", err)
		})
	if o.TLS != nil {
		opts.SetTLSConfig(o.TLS)
	}
	c.client = paho.NewClient(opts)
	return c, nil
}

// Connect starts the connection. A broker that is not reachable within the
// connect timeout is not an error: paho keeps retrying in the background
// and status published meanwhile is held until it connects.
func (c *RealClient) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		c.log.Warn("broker not reachable yet, retrying in background", "broker", c.broker)
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

func (c *RealClient) onConnect(cl paho.Client, h Handler) {
	c.log.Info("connected", "device", c.device)

	if h != nil {
		topic := SubscriptionTopic(c.device)
		token := cl.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) {
			h(m.Topic(), m.Payload())
		})
		// Wait is not allowed inside the connect handler; check asynchronously.
		go func() {
			if token.WaitTimeout(publishTimeout) && token.Error() != nil {
				c.log.Error("subscribe failed", "topic", topic, "err", token.Error())
			}
		}()
	}

	cl.Publish(Topic(c.device, SubAvailability), 1, true, Online)

	c.mu.Lock()
	held, dropped := c.outbox.drain()
	c.mu.Unlock()
	if len(held) > 0 || dropped > 0 {
		c.log.Info("replaying held messages", "count", len(held), "dropped", dropped)
	}
	for _, m := range held {
		cl.Publish(m.Topic, m.QoS, m.Retained, m.Payload)
	}
}

// PublishStatus sends the four status values. While disconnected they are
// held and sent on reconnect.
func (c *RealClient) PublishStatus(st logic.Status) error {
	msgs := FormatStatus(c.device, st)

	if !c.client.IsConnectionOpen() {
		c.mu.Lock()
		for _, m := range msgs {
			c.outbox.push(m)
		}
		c.mu.Unlock()
		c.log.Debug("not connected, holding status")
		return nil
	}

	var errs []error
	for _, m := range msgs {
		// QoS 0 (at-most-once), not retained
		token := c.client.Publish(m.Topic, m.QoS, m.Retained, m.Payload)
		if !token.WaitTimeout(publishTimeout) {
			errs = append(errs, fmt.Errorf("%s: %w", m.Topic, ErrPublishTimeout))
			continue
		}
		if err := token.Error(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.Topic, err))
		}
	}
	return errors.Join(errs...)
}

// IsConnected reports whether the connection to the broker is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close marks the device offline and disconnects from the broker.
func (c *RealClient) Close() error {
	if c.client.IsConnectionOpen() {
		token := c.client.Publish(Topic(c.device, SubAvailability), 1, true, Offline)
		token.WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
