// Package mqtt pushes committed visit assignments to technician devices
// over MQTT. One retained message per technician per commit, so a device
// reconnecting later still sees its latest plan.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/meterplan/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "meterplan"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "meterplan"
	}
}

// Validate checks mandatory fields when the notifier is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required when enabled")
	}
	return nil
}

// VisitMessage is the payload published for one assigned visit.
type VisitMessage struct {
	CommitID  string    `json:"commit_id"`
	AddressID int64     `json:"address_id"`
	Address   string    `json:"address"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// Notifier delivers committed visits to technicians.
type Notifier interface {
	NotifyVisits(technicianID int64, visits []VisitMessage) error
	Close()
}

// PahoNotifier implements Notifier using Eclipse Paho.
type PahoNotifier struct {
	cli    paho.Client
	prefix string
	qos    byte
	log    logger.Logger
}

// NewPahoNotifier connects to the broker and returns a ready notifier.
func NewPahoNotifier(cfg Config) (*PahoNotifier, error) {
	log := logger.New("mqtt-notifier")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoNotifier{cli: cli, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// NotifyVisits publishes the technician's visits as one retained message on
// <prefix>/technician/<id>/visits.
func (n *PahoNotifier) NotifyVisits(technicianID int64, visits []VisitMessage) error {
	payload, err := json.Marshal(visits)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/technician/%d/visits", n.prefix, technicianID)
	token := n.cli.Publish(topic, n.qos, true, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	n.log.Debugw("visits published", map[string]any{"topic": topic, "count": len(visits)})
	return nil
}

// Close disconnects from the broker.
func (n *PahoNotifier) Close() {
	n.cli.Disconnect(250)
}
