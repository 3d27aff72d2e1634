// Package mqtt publishes commanded radiator state to a broker so
// home-automation frontends can mirror the controller without polling
// its API. The whole package is optional: when no broker is
// configured, the control loop simply runs without a publisher.
package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"radiator_heating/internal/logger"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 2 * time.Second
	qosAtLeastOnce = 1
)

// Config is the broker section of the application config.
type Config struct {
	Broker      string // e.g. tcp://192.168.1.10:1883; empty disables MQTT
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string // defaults to "heating"
}

// Publisher is a thin retained-state publisher over paho. Safe for
// concurrent use; paho serializes the underlying connection.
type Publisher struct {
	client pahomqtt.Client
	prefix string
	log    *logger.Logger
}

// Connect dials the broker and announces the controller online via a
// retained availability topic, with a Last Will flipping it to offline.
func Connect(cfg Config, log *logger.Logger) (*Publisher, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "radiator-heating"
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "heating"
	}

	availabilityTopic := cfg.TopicPrefix + "/availability"

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false).
		SetWill(availabilityTopic, "offline", qosAtLeastOnce, true)

	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		c.Publish(availabilityTopic, qosAtLeastOnce, true, "online")
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout after %v", cfg.Broker, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	return &Publisher{client: client, prefix: cfg.TopicPrefix, log: log}, nil
}

// PublishRadiatorState publishes one confirmed relay change, retained,
// to <prefix>/room/<roomID>/radiator/<deviceID>/state. Publish errors
// are logged, never surfaced: state fan-out must not disturb the tick.
func (p *Publisher) PublishRadiatorState(roomID, deviceID string, on bool) {
	topic := stateTopic(p.prefix, roomID, deviceID)
	payload := statePayload(on)

	token := p.client.Publish(topic, qosAtLeastOnce, true, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.log.Warnw("mqtt_publish_timeout", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warnw("mqtt_publish_failed", "topic", topic, "err", err)
		}
	}()
}

// stateTopic builds the retained per-radiator topic. Frontends
// subscribe to <prefix>/room/+/radiator/+/state.
func stateTopic(prefix, roomID, deviceID string) string {
	return fmt.Sprintf("%s/room/%s/radiator/%s/state", prefix, roomID, deviceID)
}

func statePayload(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// Close flips availability to offline and disconnects.
func (p *Publisher) Close() {
	token := p.client.Publish(p.prefix+"/availability", qosAtLeastOnce, true, "offline")
	token.WaitTimeout(publishTimeout)
	p.client.Disconnect(250)
}
