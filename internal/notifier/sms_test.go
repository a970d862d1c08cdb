package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"BreakoutSentinel/internal/model"
)

func TestSMSSender_Twilio(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Errorf("missing basic auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.PostForm.Get("From") != "+15559999" || r.PostForm.Get("Body") != "IBM broke above" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		to := r.PostForm.Get("To")
		mu.Lock()
		got = append(got, to)
		mu.Unlock()
		if to == "+15550002" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code": 21211, "message": "invalid 'To' number"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM1"}`))
	}))
	defer srv.Close()

	s := NewSMSSender(srv.URL, "AC123", "token", "+15559999", "")
	failures := s.Send(context.Background(), Message{Body: "IBM broke above"}, []string{"+15550001", "+15550002", "+15550003"})

	if len(got) != 3 {
		t.Errorf("expected 3 gateway calls, got %v", got)
	}
	if len(failures) != 1 || failures[0].Recipient != "+15550002" {
		t.Errorf("expected second number to fail, got %+v", failures)
	}
	if s.Channel() != model.ChannelSMS {
		t.Errorf("unexpected channel %s", s.Channel())
	}
}

func TestTelegramSender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	s := NewTelegramSender(srv.URL, "TOKEN", "")
	if failures := s.Send(context.Background(), Message{Body: "hi"}, []string{"42"}); len(failures) != 0 {
		t.Errorf("unexpected failures: %+v", failures)
	}
}
