package broadcast

import (
	"context"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"qms/shift-service/internal/events"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQoS            = 1
	mqttTopicPrefix    = "qms/"
)

// MQTT mirrors room channels to a broker for on-premise displays. The topic
// for rooms.{id}.shifts is qms/rooms/{id}/shifts.
type MQTT struct {
	client pahomqtt.Client
}

func DialMQTT(brokerURL, clientID string) (*MQTT, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(mqttConnectTimeout)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect: timeout after %s", mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &MQTT{client: client}, nil
}

func (m *MQTT) Name() string { return "mqtt" }

func Topic(channel string) string {
	return mqttTopicPrefix + strings.ReplaceAll(channel, ".", "/")
}

func (m *MQTT) Publish(_ context.Context, envelope events.Envelope) error {
	payload, err := encode(envelope)
	if err != nil {
		return err
	}
	token := m.client.Publish(Topic(envelope.Channel), mqttQoS, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("mqtt publish: timeout after %s", mqttPublishTimeout)
	}
	return token.Error()
}

func (m *MQTT) Close() {
	m.client.Disconnect(1000)
}
