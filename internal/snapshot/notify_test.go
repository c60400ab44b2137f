package snapshot

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribeReturnsChannel(t *testing.T) {
	var n notifier
	updates, unsub := n.subscribe()
	defer unsub()

	if updates == nil {
		t.Error("subscribe returned nil channel")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	var n notifier
	updates, unsub := n.subscribe()

	unsub()

	select {
	case _, ok := <-updates:
		if ok {
			t.Error("Expected channel to be closed after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for channel close")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	var n notifier
	_, unsub := n.subscribe()

	unsub()
	unsub() // must not panic on double close
}

func TestPublishNonBlocking(t *testing.T) {
	var n notifier
	// Create a subscriber but don't read from it (slow client simulation).
	updates, unsub := n.subscribe()
	defer unsub()

	// Fill the buffer.
	n.publish("etag1")

	done := make(chan bool)
	go func() {
		n.publish("etag2")
		n.publish("etag3")
		done <- true
	}()

	select {
	case <-done:
		// publish did not block
	case <-time.After(100 * time.Millisecond):
		t.Error("publish blocked on slow subscriber")
	}

	for len(updates) > 0 {
		<-updates
	}
}

func TestMultipleSubscribersReceiveUpdates(t *testing.T) {
	var n notifier
	const numSubscribers = 5
	var channels []<-chan string
	var unsubs []func()

	for i := 0; i < numSubscribers; i++ {
		ch, unsub := n.subscribe()
		channels = append(channels, ch)
		unsubs = append(unsubs, unsub)
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	testETag := "test-etag-123"
	n.publish(testETag)

	timeout := time.After(1 * time.Second)
	for _, ch := range channels {
		select {
		case etag := <-ch:
			if etag != testETag {
				t.Errorf("Expected ETag %s, got %s", testETag, etag)
			}
		case <-timeout:
			t.Fatal("Timeout waiting for subscribers")
		}
	}
}

func TestConcurrentSubscribeUnsubscribe(t *testing.T) {
	var n notifier
	var wg sync.WaitGroup
	iterations := 50

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updates, unsub := n.subscribe()
			time.Sleep(1 * time.Millisecond)
			unsub()
			_, _ = <-updates // read from closed channel must not panic
		}()
	}

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.publish("concurrent-etag")
		}()
	}

	wg.Wait()
}

func TestSubscriberReceivesOnlyAfterSubscription(t *testing.T) {
	var n notifier
	n.publish("before-sub")

	updates, unsub := n.subscribe()
	defer unsub()

	afterETag := "after-sub"
	n.publish(afterETag)

	select {
	case etag := <-updates:
		if etag != afterETag {
			t.Errorf("Expected ETag %s, got %s", afterETag, etag)
		}
	case <-time.After(500 * time.Millisecond):
		t.Error("Timeout waiting for update")
	}

	select {
	case etag := <-updates:
		t.Errorf("Unexpected update received: %s", etag)
	case <-time.After(100 * time.Millisecond):
		// expected: nothing else
	}
}
