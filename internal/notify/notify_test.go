package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakeSender struct {
	name string
	err  error
	got  []string
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	f.got = append(f.got, title+"|"+message)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNotifierFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{"daily_trade", " error "}, discard())

	ctx := context.Background()
	for _, ev := range []string{"daily_trade", "error", "debug"} {
		if err := n.Notify(ctx, ev, "T", ev); err != nil {
			t.Fatal(err)
		}
	}
	if len(s.got) != 2 || s.got[1] != "T|error" {
		t.Errorf("delivered %v", s.got)
	}

	all := NewNotifier([]Sender{s}, nil, discard())
	_ = all.Notify(ctx, "anything", "T", "x")
	if len(s.got) != 3 {
		t.Error("empty event list should allow everything")
	}
}

func TestNotifierKeepsGoingAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	bad := &fakeSender{name: "bad", err: boom}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discard())

	err := n.Notify(context.Background(), "daily_trade", "Daily Trade", "hello")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(good.got) != 1 {
		t.Error("second sender skipped after first failed")
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("short message split: %q", got)
	}

	text := "line one\nline two\nline three\n"
	got := splitMessage(text, 18)
	want := []string{"line one\nline two", "line three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("split = %q, want %q", got, want)
	}

	long := strings.Repeat("é", 10) // 20 bytes
	for _, chunk := range splitMessage(long, 7) {
		if len(chunk) > 7 || !strings.HasPrefix(chunk, "é") {
			t.Errorf("bad chunk %q", chunk)
		}
	}
}

func TestDiscordSender(t *testing.T) {
	var mu sync.Mutex
	var posts []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		posts = append(posts, p)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL, "DailyTrader")
	if err := d.Send(context.Background(), "Daily Trade", "bought one"); err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0]["content"] != "**Daily Trade**\nbought one" || posts[0]["username"] != "DailyTrader" {
		t.Fatalf("posts = %v", posts)
	}

	long := strings.Repeat(strings.Repeat("x", 99)+"\n", 30)
	if err := d.Send(context.Background(), "", long); err != nil {
		t.Fatal(err)
	}
	if len(posts) != 3 {
		t.Errorf("long message posted %d times, want 2 more", len(posts)-1)
	}
}

func TestTelegramSenderStatus(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"ok":false}`)
	}))
	defer srv.Close()

	tg := NewTelegramSender("TOKEN", "42")
	tg.apiBase = srv.URL
	err := tg.Send(context.Background(), "Daily Trade", "hello")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("err = %v, want status error", err)
	}
	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("path = %s", gotPath)
	}
}
