package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/model"
	coremon "github.com/kilianp07/rideshare/core/monitoring"
	"github.com/kilianp07/rideshare/simulator"
)

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (d dummyToken) Error() error { return d.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type mockClient struct {
	opts        *paho.ClientOptions
	connected   bool
	connectErr  error
	published   []published
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return m.connected }

func (m *mockClient) Connect() paho.Token {
	if m.connectErr == nil {
		m.connected = true
	}
	return dummyToken{err: m.connectErr}
}

func (m *mockClient) Disconnect(uint) { m.connected = false }

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = p
	case string:
		b = []byte(p)
	}
	m.published = append(m.published, published{topic: topic, qos: qos, retained: retained, payload: b})
	var err error
	if len(m.publishErrs) > 0 {
		err = m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
	}
	return dummyToken{err: err}
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o644))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o644))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o644))
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, tlsCfg.Certificates)
	assert.NotNil(t, tlsCfg.RootCAs)
}

func TestLoadTLSConfigMissingFiles(t *testing.T) {
	_, err := Config{UseTLS: true}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestNewClientOptions(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p", TopicPrefix: "fleet", QoS: 1})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "fleet/status", opts.WillTopic)
	assert.Equal(t, "offline", string(opts.WillPayload))
	assert.True(t, opts.WillRetained)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())
	assert.Error(t, Config{Enabled: true, Broker: "tcp://b:1883", QoS: 3}.Validate())
	assert.NoError(t, Config{Enabled: true, Broker: "tcp://b:1883", QoS: 1}.Validate())
}

func TestNewClientConnectError(t *testing.T) {
	withMock(t, &mockClient{connectErr: fmt.Errorf("refused")})
	_, err := NewClient(Config{Broker: "tcp://localhost:1883"})
	assert.EqualError(t, err, "refused")
}

func TestPublishRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1, QoS: 2})
	require.NoError(t, err)
	require.NoError(t, cli.Publish("rideshare/x/state", true, []byte("{}")))
	require.Len(t, mc.published, 2)
	assert.Equal(t, byte(2), mc.published[1].qos)
}

func TestPublishFailureCaptured(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}}
	withMock(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(nil) })

	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	err = cli.Publish("rideshare/x/state", false, []byte("{}"))
	require.Error(t, err)
	require.Error(t, mon.err)
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Equal(t, "rideshare/x/state", mon.tags["topic"])
}

func TestDisconnectPublishesOffline(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	cli.Disconnect()
	require.Len(t, mc.published, 1)
	assert.Equal(t, "rideshare/status", mc.published[0].topic)
	assert.Equal(t, "offline", string(mc.published[0].payload))
	assert.False(t, mc.connected)

	cli.Disconnect()
	assert.Len(t, mc.published, 1)
}

func TestStepPublisher(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", TopicPrefix: "sim"})
	require.NoError(t, err)
	pub := NewStepPublisher(cli)

	george := model.PassengerRecord{ID: 0, Name: "George"}
	rep := simulator.StepReport{
		RunID:     "run-1",
		Time:      5,
		Timestamp: time.UnixMilli(1000),
		Vehicle:   model.Point{X: 5, Y: 0},
		PickedUp:  []string{"George"},
		Target:    "George",
		Active: []dispatch.TripView{
			{Passenger: george, State: dispatch.TripInTransit.String()},
			{Passenger: model.PassengerRecord{ID: 1, Name: "Ann"}, State: dispatch.TripWaiting.String()},
		},
	}
	require.NoError(t, pub.Step(rep))
	require.NoError(t, pub.Finish(simulator.Summary{RunID: "run-1", Steps: 11}))

	require.Len(t, mc.published, 2)
	assert.Equal(t, "sim/run-1/state", mc.published[0].topic)
	assert.True(t, mc.published[0].retained)
	var msg StateMessage
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &msg))
	assert.Equal(t, 5, msg.Time)
	assert.Equal(t, int64(1000), msg.Timestamp)
	assert.Equal(t, model.Point{X: 5, Y: 0}, msg.Vehicle)
	assert.Equal(t, 1, msg.Waiting)
	assert.Equal(t, []string{"George"}, msg.PickedUp)

	assert.Equal(t, "sim/run-1/summary", mc.published[1].topic)
	var sum simulator.Summary
	require.NoError(t, json.Unmarshal(mc.published[1].payload, &sum))
	assert.Equal(t, 11, sum.Steps)
}
