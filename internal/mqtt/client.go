package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// LinkState is the transport-level connection state surfaced by the broker
// client. It is independent of any individual machine's liveness.
type LinkState string

const (
	LinkConnecting   LinkState = "connecting"
	LinkConnected    LinkState = "connected"
	LinkDisconnected LinkState = "disconnected"
)

// MessageHandler receives the raw payload of one inbound message.
type MessageHandler func(topic string, payload []byte)

// StateHandler receives transport state changes. At most one handler is
// registered at a time; registering replaces the previous one.
type StateHandler func(state LinkState)

// ClientConfig holds MQTT client configuration.
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Client wraps the paho MQTT client. Reconnection and backoff are the
// underlying client's concern; this wrapper only exposes subscribe,
// unsubscribe and the link-state signal.
type Client struct {
	client mqtt.Client

	mu           sync.Mutex
	stateHandler StateHandler
}

// NewClient connects to the broker and returns a ready client.
func NewClient(config ClientConfig) (*Client, error) {
	c := &Client{}

	clientID := config.ClientID
	if clientID == "" {
		clientID = "roastlive-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(clientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Println("MQTT client connected")
		c.notify(LinkConnected)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
		c.notify(LinkDisconnected)
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		c.notify(LinkConnecting)
	})

	c.client = mqtt.NewClient(opts)

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Println("Connected to MQTT broker:", config.Broker)
	return c, nil
}

// SetStateHandler installs the link-state handler. Passing nil unbinds it.
// The new handler is immediately called with the current state so a fresh
// subscriber does not miss an already-established connection.
func (c *Client) SetStateHandler(h StateHandler) {
	c.mu.Lock()
	c.stateHandler = h
	c.mu.Unlock()

	if h != nil {
		if c.client.IsConnected() {
			h(LinkConnected)
		} else {
			h(LinkDisconnected)
		}
	}
}

func (c *Client) notify(state LinkState) {
	c.mu.Lock()
	h := c.stateHandler
	c.mu.Unlock()
	if h != nil {
		h(state)
	}
}

// Subscribe subscribes to a topic at QoS 1.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	token := c.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}
	log.Printf("Subscribed to topic: %s", topic)
	return nil
}

// Unsubscribe removes a subscription. Unsubscribing a topic that was never
// subscribed, or was already unsubscribed, is a no-op.
func (c *Client) Unsubscribe(topic string) error {
	token := c.client.Unsubscribe(topic)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", topic, token.Error())
	}
	log.Printf("Unsubscribed from topic: %s", topic)
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.SetStateHandler(nil)
	c.client.Disconnect(250)
	log.Println("MQTT client disconnected")
}
