package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type declared struct {
	name    string
	kind    string
	durable bool
}

type fakeBroker struct {
	dials     int
	dialErr   []error
	failures  []bool // per channel: whether its publishes fail
	sent      []published
	declares  []declared
	closedChs int
}

type fakeConn struct {
	b    *fakeBroker
	fail bool
}

type fakeChannel struct {
	b    *fakeBroker
	fail bool
}

func (b *fakeBroker) dial(url string, _ amqp.Config) (Connection, error) {
	idx := b.dials
	b.dials++
	if idx < len(b.dialErr) && b.dialErr[idx] != nil {
		return nil, b.dialErr[idx]
	}
	fail := idx < len(b.failures) && b.failures[idx]
	return &fakeConn{b: b, fail: fail}, nil
}

func (c *fakeConn) Channel() (Channel, error) { return &fakeChannel{b: c.b, fail: c.fail}, nil }
func (c *fakeConn) Close() error             { return nil }

func (ch *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	ch.b.declares = append(ch.b.declares, declared{name: name, kind: kind, durable: durable})
	return nil
}

func (ch *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if ch.fail {
		return amqp.ErrClosed
	}
	ch.b.sent = append(ch.b.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (ch *fakeChannel) Close() error {
	ch.b.closedChs++
	return nil
}

func newTestPublisher(t *testing.T, b *fakeBroker) *Publisher {
	t.Helper()
	p, err := NewPublisher(Config{Host: "localhost", Port: 5672, Exchange: "skin.market.data"},
		slog.New(slog.NewTextHandler(io.Discard, nil)), WithDialer(b.dial))
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	return p
}

func TestPublishHappyPath(t *testing.T) {
	b := &fakeBroker{}
	p := newTestPublisher(t, b)

	if err := p.Publish(context.Background(), "skin.market.bitskins", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(b.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(b.sent))
	}
	got := b.sent[0]
	if got.exchange != "skin.market.data" || got.key != "skin.market.bitskins" {
		t.Errorf("sent to %s/%s", got.exchange, got.key)
	}
	if got.msg.DeliveryMode != amqp.Persistent || got.msg.ContentType != "application/json" || got.msg.MessageId == "" {
		t.Errorf("message properties = %+v", got.msg)
	}
	if len(b.declares) != 1 || b.declares[0] != (declared{name: "skin.market.data", kind: "topic", durable: true}) {
		t.Errorf("declares = %+v", b.declares)
	}
}

func TestPublishReconnectsOnceAndSendsOnce(t *testing.T) {
	b := &fakeBroker{failures: []bool{true, false}}
	p := newTestPublisher(t, b)

	if err := p.Publish(context.Background(), "k", []byte("x")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(b.sent) != 1 {
		t.Fatalf("sent %d messages, want exactly 1", len(b.sent))
	}
	if b.dials != 2 || len(b.declares) != 2 {
		t.Errorf("dials = %d declares = %d, want 2 and 2", b.dials, len(b.declares))
	}
	if b.closedChs != 1 {
		t.Errorf("closed channels = %d, want 1", b.closedChs)
	}
}

func TestPublishFailsAfterOneRetry(t *testing.T) {
	b := &fakeBroker{failures: []bool{true, true, true, false}}
	p := newTestPublisher(t, b)

	err := p.Publish(context.Background(), "k", []byte("x"))
	if !errors.Is(err, ErrPublish) {
		t.Fatalf("Publish = %v, want ErrPublish", err)
	}
	if b.dials != 2 {
		t.Errorf("dials = %d, want one reconnect", b.dials)
	}
	if len(b.sent) != 0 {
		t.Errorf("sent = %d, want 0", len(b.sent))
	}

	// The next call starts on the current failing channel and gets one
	// reconnect of its own.
	if err := p.Publish(context.Background(), "k", []byte("x")); !errors.Is(err, ErrPublish) {
		t.Fatalf("second Publish = %v, want ErrPublish", err)
	}
	if b.dials != 3 || len(b.sent) != 0 {
		t.Fatalf("after second Publish: dials = %d sent = %d", b.dials, len(b.sent))
	}

	if err := p.Publish(context.Background(), "k", []byte("x")); err != nil {
		t.Fatalf("third Publish = %v", err)
	}
	if b.dials != 4 || len(b.sent) != 1 {
		t.Errorf("after third Publish: dials = %d sent = %d, want 4 and 1", b.dials, len(b.sent))
	}
}

func TestPublishReconnectFailure(t *testing.T) {
	b := &fakeBroker{failures: []bool{true}, dialErr: []error{nil, errors.New("connection refused")}}
	p := newTestPublisher(t, b)

	err := p.Publish(context.Background(), "k", []byte("x"))
	if !errors.Is(err, ErrPublish) || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("Publish = %v", err)
	}
}

func TestNewPublisherSurvivesBrokerDownAtStartup(t *testing.T) {
	b := &fakeBroker{dialErr: []error{errors.New("connection refused")}}
	p, err := NewPublisher(Config{Host: "mq", Port: 5672, Exchange: "skin.market.data"},
		slog.New(slog.NewTextHandler(io.Discard, nil)), WithDialer(b.dial))
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	if err := p.Publish(context.Background(), "skin.market.bitskins", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("first Publish = %v", err)
	}
	if b.dials != 2 || len(b.sent) != 1 || len(b.declares) != 1 {
		t.Errorf("dials = %d sent = %d declares = %d, want 2, 1 and 1", b.dials, len(b.sent), len(b.declares))
	}
}

func TestNewPublisherRequiresExchange(t *testing.T) {
	_, err := NewPublisher(Config{Host: "mq", Port: 5672},
		slog.New(slog.NewTextHandler(io.Discard, nil)), WithDialer((&fakeBroker{}).dial))
	if err == nil {
		t.Fatalf("NewPublisher without exchange should fail")
	}
}

func TestPublishAfterClose(t *testing.T) {
	p := newTestPublisher(t, &fakeBroker{})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Publish(context.Background(), "k", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("Publish after Close = %v", err)
	}
}

func TestConfigURLRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantVHost string
	}{
		{name: "default vhost", cfg: Config{Host: "mq", Port: 5672, User: "guest", Password: "guest"}, wantVHost: "/"},
		{name: "named vhost", cfg: Config{Host: "mq", Port: 5673, User: "monitor", Password: "s3cret", VHost: "skins"}, wantVHost: "skins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := amqp.ParseURI(tt.cfg.URL())
			if err != nil {
				t.Fatalf("ParseURI(%q): %v", tt.cfg.URL(), err)
			}
			if uri.Host != tt.cfg.Host || uri.Port != tt.cfg.Port || uri.Username != tt.cfg.User || uri.Password != tt.cfg.Password {
				t.Errorf("parsed %+v from %q", uri, tt.cfg.URL())
			}
			if uri.Vhost != tt.wantVHost {
				t.Errorf("vhost = %q, want %q", uri.Vhost, tt.wantVHost)
			}
		})
	}
}
