package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/jgaa-thai/restaurant-client/internal/model"
	"github.com/jgaa-thai/restaurant-client/internal/notify"
	"github.com/jgaa-thai/restaurant-client/internal/store"
)

type stubSyncer struct {
	mu         sync.Mutex
	fetchCalls int
	startCalls int
	stopCalls  int
	fetched    chan struct{}
}

func newStubSyncer() *stubSyncer {
	return &stubSyncer{fetched: make(chan struct{}, 16)}
}

func (s *stubSyncer) FetchNow(ctx context.Context) error {
	s.mu.Lock()
	s.fetchCalls++
	s.mu.Unlock()
	s.fetched <- struct{}{}
	return nil
}

func (s *stubSyncer) StartSync(ctx context.Context) {
	s.mu.Lock()
	s.startCalls++
	s.mu.Unlock()
}

func (s *stubSyncer) StopSync() {
	s.mu.Lock()
	s.stopCalls++
	s.mu.Unlock()
}

func (s *stubSyncer) counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls, s.startCalls, s.stopCalls
}

type stubTokens struct {
	mu     sync.Mutex
	tokens []string
}

func (s *stubTokens) SetToken(token string) {
	s.mu.Lock()
	s.tokens = append(s.tokens, token)
	s.mu.Unlock()
}

func (s *stubTokens) last() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) == 0 {
		return "", false
	}
	return s.tokens[len(s.tokens)-1], true
}

func newTestManager(t *testing.T) (*Manager, *store.Store, *stubSyncer, *stubTokens, *notify.Log) {
	t.Helper()

	st := store.New()
	syncer := newStubSyncer()
	tokens := &stubTokens{}
	notifier := notify.NewLog(zap.NewNop())
	m := NewManager(st, notifier, syncer, tokens, zap.NewNop())
	return m, st, syncer, tokens, notifier
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func waitFetch(t *testing.T, s *stubSyncer) {
	t.Helper()
	select {
	case <-s.fetched:
	case <-time.After(time.Second):
		t.Fatalf("cart fetch was not triggered")
	}
}

func TestSaveSessionInfo_NilPayload(t *testing.T) {
	m, st, _, _, notifier := newTestManager(t)

	err := m.SaveSessionInfo(context.Background(), model.RoleClient, nil, "")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
	if st.Partition(model.RoleClient).IsAuthenticated {
		t.Fatalf("partition must stay untouched on nil payload")
	}

	recent := notifier.Recent()
	if len(recent) != 1 || recent[0].Title != notify.TitleLoginFailed {
		t.Fatalf("unexpected notifications: %+v", recent)
	}
}

func TestSaveSessionInfo_MissingIdentityFields(t *testing.T) {
	m, st, _, _, _ := newTestManager(t)

	// Нет fname — обязательного идентификационного поля.
	err := m.SaveSessionInfo(context.Background(), model.RoleWorker, &model.UserRecord{UserID: 3}, "")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
	if st.Partition(model.RoleWorker).IsAuthenticated {
		t.Fatalf("partition must stay untouched on invalid payload")
	}
}

func TestSaveSessionInfo_ClientStartsCartLifecycle(t *testing.T) {
	m, st, syncer, tokens, _ := newTestManager(t)

	err := m.SaveSessionInfo(context.Background(), model.RoleClient,
		&model.UserRecord{UserID: 1, FirstName: "Ann"}, "session-token")
	if err != nil {
		t.Fatalf("SaveSessionInfo error: %v", err)
	}

	p := st.Partition(model.RoleClient)
	if !p.IsAuthenticated || p.Info == nil || p.Info.FirstName != "Ann" || p.Token != "session-token" {
		t.Fatalf("unexpected client partition: %+v", p)
	}

	waitFetch(t, syncer)
	if _, starts, _ := syncer.counts(); starts != 1 {
		t.Fatalf("StartSync calls = %d, want 1", starts)
	}
	if token, ok := tokens.last(); !ok || token != "session-token" {
		t.Fatalf("token sink = %q, want session-token", token)
	}
}

func TestSaveSessionInfo_WorkerDoesNotTouchCart(t *testing.T) {
	m, _, syncer, tokens, _ := newTestManager(t)

	err := m.SaveSessionInfo(context.Background(), model.RoleWorker,
		&model.UserRecord{UserID: 2, FirstName: "Ben"}, "worker-token")
	if err != nil {
		t.Fatalf("SaveSessionInfo error: %v", err)
	}

	if fetches, starts, _ := syncer.counts(); fetches != 0 || starts != 0 {
		t.Fatalf("worker login must not start the cart lifecycle")
	}
	if _, ok := tokens.last(); ok {
		t.Fatalf("worker token must not reach the cart backend sink")
	}
}

func TestLogout_ResetsOnlyThatRole(t *testing.T) {
	m, st, syncer, _, _ := newTestManager(t)

	if err := m.SaveSessionInfo(context.Background(), model.RoleAdmin,
		&model.UserRecord{UserID: 9, FirstName: "Root"}, ""); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if err := m.SaveSessionInfo(context.Background(), model.RoleClient,
		&model.UserRecord{UserID: 1, FirstName: "Ann"}, "tok"); err != nil {
		t.Fatalf("client login: %v", err)
	}
	waitFetch(t, syncer)

	m.Logout(model.RoleClient)

	p := st.Partition(model.RoleClient)
	if p.IsAuthenticated || p.Info != nil || p.Loading {
		t.Fatalf("client partition not in initial state: %+v", p)
	}
	if !st.Partition(model.RoleAdmin).IsAuthenticated {
		t.Fatalf("admin partition must be untouched by client logout")
	}
	if _, _, stops := syncer.counts(); stops != 1 {
		t.Fatalf("StopSync calls = %d, want 1", stops)
	}
}

func TestResume_ExpiredTokenResetsPartition(t *testing.T) {
	m, st, syncer, _, notifier := newTestManager(t)

	expired := signedToken(t, time.Now().Add(-time.Hour))
	st.SetPartition(model.RoleClient, model.SessionPartition{
		IsAuthenticated: true,
		Info:            &model.UserRecord{UserID: 1, FirstName: "Ann"},
		Token:           expired,
	})

	m.Resume(context.Background())

	if st.Partition(model.RoleClient).IsAuthenticated {
		t.Fatalf("expired session must be reset on resume")
	}
	if _, starts, _ := syncer.counts(); starts != 0 {
		t.Fatalf("expired session must not start the synchronizer")
	}

	found := false
	for _, n := range notifier.Recent() {
		if n.Title == notify.TitleSessionExpired {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a session expired notification")
	}
}

func TestResume_LiveClientRestartsSync(t *testing.T) {
	m, st, syncer, tokens, _ := newTestManager(t)

	live := signedToken(t, time.Now().Add(time.Hour))
	st.SetPartition(model.RoleClient, model.SessionPartition{
		IsAuthenticated: true,
		Info:            &model.UserRecord{UserID: 1, FirstName: "Ann"},
		Token:           live,
	})

	m.Resume(context.Background())

	waitFetch(t, syncer)
	if _, starts, _ := syncer.counts(); starts != 1 {
		t.Fatalf("StartSync calls = %d, want 1", starts)
	}
	if token, ok := tokens.last(); !ok || token != live {
		t.Fatalf("restored token must be handed to the backend client")
	}
}

func TestResume_OpaqueTokenKeptAlive(t *testing.T) {
	m, st, _, _, _ := newTestManager(t)

	st.SetPartition(model.RoleWorker, model.SessionPartition{
		IsAuthenticated: true,
		Info:            &model.UserRecord{UserID: 2, FirstName: "Ben"},
		Token:           "opaque-not-a-jwt",
	})

	m.Resume(context.Background())

	if !st.Partition(model.RoleWorker).IsAuthenticated {
		t.Fatalf("opaque token must not expire the session client-side")
	}
}
