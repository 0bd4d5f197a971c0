package statuslog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendsInOrder(t *testing.T) {
	l := New(nil)
	assert.Equal(t, "", l.String())

	l.Logf("sharing started")
	l.Logf("mic permission denied: %s", "no device")
	l.Logf("recording saved")

	assert.Equal(t, []string{"sharing started", "mic permission denied: no device", "recording saved"}, l.Lines())
	assert.Equal(t, "sharing started\nmic permission denied: no device\nrecording saved\n", l.String())
}

func TestLog_SubscribeReceivesLaterLines(t *testing.T) {
	l := New(nil)
	l.Logf("before")

	ctx, cancel := context.WithCancel(t.Context())
	ch := l.Subscribe(ctx)

	l.Logf("one")
	l.Logf("two")

	require.Equal(t, "one", recv(t, ch))
	require.Equal(t, "two", recv(t, ch))

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestLog_FollowSplitsBacklogAndLive(t *testing.T) {
	l := New(nil)

	const total = 50
	want := make([]string, total)
	for i := range want {
		want[i] = fmt.Sprintf("line %d", i)
	}

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, line := range want {
			if i == total/2 {
				close(started)
			}
			l.Logf("%s", line)
		}
	}()

	<-started
	backlog, live := l.Follow(t.Context())
	<-done

	got := append([]string(nil), backlog...)
	for len(got) < total {
		got = append(got, recv(t, live))
	}
	assert.Equal(t, want, got, "every line is delivered once, in order")

	select {
	case extra := <-live:
		t.Fatalf("unexpected extra line %q", extra)
	default:
	}
}

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status line")
		return ""
	}
}
