// Package mqtt publishes simulation state to an MQTT broker using Eclipse
// Paho. Each run gets its own topic subtree:
//
//	<prefix>/<run_id>/state    one message per step (retained)
//	<prefix>/<run_id>/summary  the end of run statistics (retained)
//	<prefix>/status            "online" while connected, "offline" as will
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/rideshare/core/monitoring"
	"github.com/kilianp07/rideshare/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool        `json:"enabled"`
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "rideshare"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields when publishing is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	if c.MaxRetries < 0 || c.BackoffMS < 0 {
		return fmt.Errorf("mqtt retry settings must not be negative")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Client is a connected publisher with retry and backoff.
type Client struct {
	cli        pahoClient
	prefix     string
	qos        byte
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewClient connects to the broker described by cfg.
func NewClient(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if cfg.ClientID == "" {
		cfg.ClientID = "rideshare-" + uuid.NewString()[:8]
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_client")
	c := &Client{
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
	opts.OnConnect = func(pc paho.Client) {
		log.Infof("MQTT connected")
		if t := pc.Publish(c.StatusTopic(), c.qos, true, "online"); t.Wait() && t.Error() != nil {
			log.Errorf("status publish: %v", t.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	c.cli = cli
	return c, nil
}

// NewClientOptions builds paho options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "rideshare"
	}
	opts.SetWill(prefix+"/status", "offline", cfg.QoS, true)
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("no certificates in %s", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// StatusTopic is the retained presence topic.
func (c *Client) StatusTopic() string { return c.prefix + "/status" }

// Topic joins the prefix with a run scoped suffix.
func (c *Client) Topic(runID, leaf string) string {
	return fmt.Sprintf("%s/%s/%s", c.prefix, runID, leaf)
}

// Publish sends payload, retrying with exponential backoff. The final
// failure is reported to the monitor.
func (c *Client) Publish(topic string, retained bool, payload []byte) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		token := c.cli.Publish(topic, c.qos, retained, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			return nil
		}
		c.log.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, err)
		if attempt < c.maxRetries {
			time.Sleep(c.backoff * time.Duration(1<<attempt))
		}
	}
	coremon.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
	return fmt.Errorf("publish %s: %w", topic, err)
}

// Disconnect marks the client offline and closes the connection.
func (c *Client) Disconnect() {
	if c.cli == nil || !c.cli.IsConnected() {
		return
	}
	if t := c.cli.Publish(c.StatusTopic(), c.qos, true, "offline"); t.WaitTimeout(time.Second) && t.Error() != nil {
		c.log.Warnf("status publish: %v", t.Error())
	}
	c.cli.Disconnect(250)
}
