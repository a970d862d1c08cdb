package notifier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"

	"BreakoutSentinel/internal/model"
)

type fakeConn struct {
	reject map[string]bool
	sent   map[string]string
	closed bool
}

func (c *fakeConn) Send(from string, to []string, msg io.WriterTo) error {
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	for _, addr := range to {
		if c.reject[addr] {
			return errors.New("550 mailbox unavailable")
		}
		c.sent[addr] = buf.String()
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeDialer struct {
	conn  *fakeConn
	err   error
	dials int
}

func (d *fakeDialer) Dial() (gomail.SendCloser, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func TestEmailSender_ReusesConnection(t *testing.T) {
	conn := &fakeConn{reject: map[string]bool{"bob@example.com": true}, sent: map[string]string{}}
	dialer := &fakeDialer{conn: conn}
	s := &EmailSender{dialer: dialer, from: "sentinel@example.com"}

	failures := s.Send(context.Background(),
		Message{Subject: "Opening range breakout: IBM", Body: "IBM broke above"},
		[]string{"alice@example.com", "bob@example.com", "carol@example.com"})

	if dialer.dials != 1 {
		t.Errorf("expected one SMTP connection, got %d", dialer.dials)
	}
	if !conn.closed {
		t.Error("connection not closed")
	}
	if len(failures) != 1 || failures[0].Recipient != "bob@example.com" {
		t.Fatalf("expected bob to fail, got %+v", failures)
	}
	if len(conn.sent) != 2 {
		t.Errorf("expected 2 delivered copies, got %d", len(conn.sent))
	}
	body := conn.sent["carol@example.com"]
	if !strings.Contains(body, "Subject: Opening range breakout: IBM") || !strings.Contains(body, "text/plain") {
		t.Errorf("unexpected message:\n%s", body)
	}
}

func TestEmailSender_DialFailureFailsEveryone(t *testing.T) {
	s := &EmailSender{dialer: &fakeDialer{err: errors.New("auth failed")}, from: "sentinel@example.com"}
	failures := s.Send(context.Background(), Message{Body: "x"}, []string{"a@example.com", "b@example.com"})
	if len(failures) != 2 {
		t.Fatalf("expected both recipients to fail, got %+v", failures)
	}
	if !errors.Is(failures[0].Err, model.ErrTransport) {
		t.Errorf("expected transport failure, got %v", failures[0].Err)
	}
}
