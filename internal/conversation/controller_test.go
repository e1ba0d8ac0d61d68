package conversation

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach/internal/coach"
	"interview-coach/internal/history"
	"interview-coach/internal/storage"
)

type fakeExchanger struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, message string) (*coach.InterviewResponse, error)
}

func (f *fakeExchanger) SendMessage(ctx context.Context, message string) (*coach.InterviewResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, message)
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, message)
}

func (f *fakeExchanger) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func echoExchanger() *fakeExchanger {
	return &fakeExchanger{fn: func(_ context.Context, message string) (*coach.InterviewResponse, error) {
		return &coach.InterviewResponse{Reply: "Coach says: " + message}, nil
	}}
}

func newController(t *testing.T, client Exchanger) (*Controller, *history.MemoryRepository) {
	t.Helper()
	repo := history.NewMemoryRepository()
	ctrl := NewController(history.OpenConversation(repo), client, nil)
	// Frozen clock: every message is created in the same millisecond.
	frozen := time.UnixMilli(1700000000000)
	ctrl.now = func() time.Time { return frozen }
	return ctrl, repo
}

// refusedClient returns a real client pointed at a port nobody listens on
func refusedClient(t *testing.T) *coach.Client {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	return coach.NewClient(coach.Options{BaseURL: "http://" + addr})
}

func TestSubmit_SuccessfulExchanges(t *testing.T) {
	client := echoExchanger()
	ctrl, repo := newController(t, client)

	questions := []string{"Tell me about yourself", "Why should we hire you?", "Where do you see yourself in 5 years?"}
	for _, q := range questions {
		reply, err := ctrl.Submit(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, "Coach says: "+q, reply.Text)
		assert.False(t, reply.IsUser)
	}

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2*len(questions))
	for i, m := range msgs {
		assert.Equal(t, i%2 == 0, m.IsUser, "entry %d alternates user/coach", i)
		assert.False(t, m.IsError)
	}
	for i, q := range questions {
		assert.Equal(t, q, msgs[2*i].Text)
	}

	assert.Equal(t, questions, client.Calls())
	assert.Equal(t, msgs, repo.Load(), "every append is persisted")
	assert.False(t, ctrl.IsLoading())
}

func TestSubmit_UniqueIDsWithinOneMillisecond(t *testing.T) {
	ctrl, _ := newController(t, echoExchanger())

	for i := 0; i < 10; i++ {
		_, err := ctrl.Submit(context.Background(), fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	seen := make(map[int64]bool)
	var prev int64
	for _, m := range ctrl.Messages() {
		assert.False(t, seen[m.ID], "duplicate id %d", m.ID)
		assert.Greater(t, m.ID, prev, "ids increase in creation order")
		seen[m.ID] = true
		prev = m.ID
	}
}

func TestSubmit_IDsContinueAfterReload(t *testing.T) {
	repo := history.NewMemoryRepository(history.Message{ID: 1800000000000, Text: "old", IsUser: true, Timestamp: 1800000000000})
	ctrl := NewController(history.OpenConversation(repo), echoExchanger(), nil)
	ctrl.now = func() time.Time { return time.UnixMilli(1700000000000) }

	_, err := ctrl.Submit(context.Background(), "new")
	require.NoError(t, err)

	msgs := ctrl.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, int64(1800000000001), msgs[1].ID)
	assert.Equal(t, int64(1800000000002), msgs[2].ID)
}

func TestSubmit_EmptyIsNoop(t *testing.T) {
	client := echoExchanger()
	ctrl, repo := newController(t, client)

	changes := 0
	ctrl.OnChange(func() { changes++ })

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := ctrl.Submit(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	assert.Empty(t, ctrl.Messages())
	assert.False(t, ctrl.IsLoading())
	assert.Empty(t, client.Calls())
	assert.Equal(t, 0, repo.Saves())
	assert.Equal(t, 0, changes)
}

func TestSubmit_TrimsInput(t *testing.T) {
	client := echoExchanger()
	ctrl, _ := newController(t, client)

	_, err := ctrl.Submit(context.Background(), "  Why do you want to work here?  \n")
	require.NoError(t, err)

	assert.Equal(t, []string{"Why do you want to work here?"}, client.Calls())
	assert.Equal(t, "Why do you want to work here?", ctrl.Messages()[0].Text)
}

func TestSubmit_BusyIsNoop(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	client := &fakeExchanger{fn: func(ctx context.Context, message string) (*coach.InterviewResponse, error) {
		close(entered)
		<-release
		return &coach.InterviewResponse{Reply: "done"}, nil
	}}
	ctrl, _ := newController(t, client)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := ctrl.Submit(context.Background(), "a")
		assert.NoError(t, err)
	}()

	<-entered
	assert.True(t, ctrl.IsLoading())

	_, err := ctrl.Submit(context.Background(), "a")
	assert.ErrorIs(t, err, ErrBusy)

	msgs := ctrl.Messages()
	require.Len(t, msgs, 1, "only the first submission is appended")
	assert.Equal(t, "a", msgs[0].Text)
	assert.True(t, msgs[0].IsUser)

	close(release)
	wg.Wait()

	assert.False(t, ctrl.IsLoading())
	assert.Len(t, ctrl.Messages(), 2)
	assert.Len(t, client.Calls(), 1)
}

func TestSubmit_ConcurrentAdmission(t *testing.T) {
	release := make(chan struct{})
	var inFlight atomic.Int32
	client := &fakeExchanger{fn: func(ctx context.Context, message string) (*coach.InterviewResponse, error) {
		inFlight.Add(1)
		<-release
		return &coach.InterviewResponse{Reply: "ok"}, nil
	}}
	ctrl, _ := newController(t, client)

	var wg sync.WaitGroup
	var busy atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ctrl.Submit(context.Background(), "q"); err == ErrBusy {
				busy.Add(1)
			}
		}()
	}

	require.Eventually(t, func() bool { return busy.Load() == 19 }, 2*time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), inFlight.Load())
	assert.Len(t, ctrl.Messages(), 2)
}

func TestSubmit_ConnectionRefused(t *testing.T) {
	ctrl, _ := newController(t, refusedClient(t))

	reply, err := ctrl.Submit(context.Background(), "Tell me about yourself")
	require.NoError(t, err, "network failures are recorded, not returned")

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Tell me about yourself", msgs[0].Text)
	assert.True(t, msgs[0].IsUser)

	assert.True(t, msgs[1].IsError)
	assert.False(t, msgs[1].IsUser)
	assert.Contains(t, msgs[1].Text, coach.Describe(coach.ErrUnreachable))
	assert.True(t, strings.HasPrefix(msgs[1].Text, ErrorPrefix))
	assert.Equal(t, msgs[1], reply)

	lastErr, ok := ctrl.LastError()
	assert.True(t, ok)
	assert.Equal(t, coach.Describe(coach.ErrUnreachable), lastErr)
	assert.False(t, ctrl.IsLoading())
}

func TestSubmit_ServiceErrorDetail(t *testing.T) {
	client := &fakeExchanger{fn: func(context.Context, string) (*coach.InterviewResponse, error) {
		return nil, &coach.ServiceError{StatusCode: 500, Detail: "model overloaded"}
	}}
	ctrl, _ := newController(t, client)

	_, err := ctrl.Submit(context.Background(), "hi")
	require.NoError(t, err)

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ErrorPrefix+"model overloaded", msgs[1].Text)
	lastErr, _ := ctrl.LastError()
	assert.Equal(t, "model overloaded", lastErr)
}

func TestSubmit_ClearsLastErrorOnNextSubmission(t *testing.T) {
	fail := true
	client := &fakeExchanger{fn: func(context.Context, string) (*coach.InterviewResponse, error) {
		if fail {
			return nil, &coach.NetworkError{}
		}
		return &coach.InterviewResponse{Reply: "ok"}, nil
	}}
	ctrl, _ := newController(t, client)

	_, _ = ctrl.Submit(context.Background(), "first")
	_, ok := ctrl.LastError()
	require.True(t, ok)

	fail = false
	var sawClearedWhileLoading bool
	ctrl.OnChange(func() {
		if ctrl.IsLoading() {
			_, has := ctrl.LastError()
			sawClearedWhileLoading = !has
		}
	})

	_, _ = ctrl.Submit(context.Background(), "second")
	_, ok = ctrl.LastError()
	assert.False(t, ok)
	assert.True(t, sawClearedWhileLoading, "lastError is cleared as soon as the submission starts")
	assert.Len(t, ctrl.Messages(), 4)
}

func TestSubmit_ContextCancelled(t *testing.T) {
	client := &fakeExchanger{fn: func(ctx context.Context, _ string) (*coach.InterviewResponse, error) {
		<-ctx.Done()
		return nil, &coach.NetworkError{Err: ctx.Err()}
	}}
	ctrl, _ := newController(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := ctrl.Submit(ctx, "hi")
	require.NoError(t, err)
	assert.True(t, reply.IsError)
	assert.False(t, ctrl.IsLoading())
}

func TestSubmit_NilResponseIsAFailure(t *testing.T) {
	client := &fakeExchanger{fn: func(context.Context, string) (*coach.InterviewResponse, error) {
		return nil, nil
	}}
	ctrl, _ := newController(t, client)

	reply, err := ctrl.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, reply.IsError)
	assert.Equal(t, ErrorPrefix+"Network error. Please check your connection and try again.", reply.Text)

	desc, ok := ctrl.LastError()
	assert.True(t, ok)
	assert.NotEmpty(t, desc)
	assert.False(t, ctrl.IsLoading())
	assert.Len(t, ctrl.Messages(), 2)
}

func TestClearHistory(t *testing.T) {
	kv := storage.NewMemory(0)
	repo := history.NewKVRepository(kv, "", nil)
	ctrl := NewController(history.OpenConversation(repo), &fakeExchanger{fn: func(context.Context, string) (*coach.InterviewResponse, error) {
		return nil, &coach.ServiceError{StatusCode: 503}
	}}, nil)

	_, _ = ctrl.Submit(context.Background(), "hi")
	require.Len(t, ctrl.Messages(), 2)
	_, ok := ctrl.LastError()
	require.True(t, ok)

	changes := 0
	ctrl.OnChange(func() { changes++ })
	ctrl.ClearHistory()

	assert.Empty(t, ctrl.Messages())
	_, ok = ctrl.LastError()
	assert.False(t, ok)
	assert.Equal(t, 1, changes)

	_, exists, err := kv.Get(history.DefaultKey)
	require.NoError(t, err)
	assert.False(t, exists, "persisted entry removed")
}

func TestClearHistory_DoesNotTouchLoading(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	client := &fakeExchanger{fn: func(context.Context, string) (*coach.InterviewResponse, error) {
		close(entered)
		<-release
		return &coach.InterviewResponse{Reply: "late"}, nil
	}}
	ctrl, _ := newController(t, client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Submit(context.Background(), "q")
	}()
	<-entered

	ctrl.ClearHistory()
	assert.True(t, ctrl.IsLoading())

	close(release)
	<-done
	assert.False(t, ctrl.IsLoading())
	require.Len(t, ctrl.Messages(), 1, "the late reply still lands")
	assert.Equal(t, "late", ctrl.Messages()[0].Text)
}

func TestReload(t *testing.T) {
	repo := history.NewMemoryRepository()
	ctrl := NewController(history.OpenConversation(repo), echoExchanger(), nil)

	repo.Save([]history.Message{{ID: 42, Text: "from elsewhere", IsUser: true}})
	ctrl.Reload()

	require.Len(t, ctrl.Messages(), 1)
	assert.Equal(t, "from elsewhere", ctrl.Messages()[0].Text)
}

func TestOnChange_NotifiedTwicePerSubmission(t *testing.T) {
	ctrl, _ := newController(t, echoExchanger())

	var loadingStates []bool
	ctrl.OnChange(func() { loadingStates = append(loadingStates, ctrl.IsLoading()) })

	_, err := ctrl.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, loadingStates)
}
