// Package awaitio bridges blocking operations into Awaitables: the operation
// runs on its own goroutine and its outcome is posted back to the runtime's
// scheduler thread, where it settles the Awaitable through a Completer.
//
// The runtime must be driven by a real run loop (see the looper package); the
// Immediate scheduler would settle Awaitables from foreign goroutines.
package awaitio

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/awaitlib/await"
)

// Go runs fn on a new goroutine and returns an Awaitable for it along with
// the location that will hold fn's result once the Awaitable completes. If
// the Awaitable is done or closed before fn finishes, the late result is
// dropped: the guard token blocks the posted settle and the expired Completer
// makes it a no-op either way.
func Go[T any](rt *await.Runtime, tag string, fn func() (T, error)) (*await.Awaitable, *T) {
	a := rt.NewAwaitable(tag)
	c := a.TakeCompleter()
	guard := await.NewCallbackGuard()
	token := guard.Token()
	a.OnDone(func(*await.Awaitable) { guard.Block() })
	out := new(T)
	sched := rt.Scheduler()

	go func() {
		v, err := fn()
		sched.Post(func() {
			if token.Blocked() {
				return
			}
			if err != nil {
				c.Fail(err)
				return
			}
			*out = v
			c.Complete()
		})
	}()
	return a, out
}

// RunOnThread awaits a side effect performed off the loop thread.
func RunOnThread(rt *await.Runtime, tag string, fn func() error) *await.Awaitable {
	a, _ := Go(rt, tag, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return a
}

// Dial opens a connection asynchronously.
func Dial(rt *await.Runtime, network, address string) (*await.Awaitable, *net.Conn) {
	return Go(rt, "dial "+address, func() (net.Conn, error) {
		return net.Dial(network, address)
	})
}

// ReadLine reads one newline-terminated line, without the delimiter.
func ReadLine(rt *await.Runtime, r *bufio.Reader) (*await.Awaitable, *string) {
	return Go(rt, "readLine", func() (string, error) {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		return line[:len(line)-1], nil
	})
}

// WriteAll writes p in full.
func WriteAll(rt *await.Runtime, w io.Writer, p []byte) *await.Awaitable {
	return RunOnThread(rt, "writeAll", func() error {
		_, err := w.Write(p)
		return err
	})
}

// FetchURL downloads url and yields the response body.
func FetchURL(rt *await.Runtime, url string) (*await.Awaitable, *[]byte) {
	return Go(rt, "fetch "+url, func() ([]byte, error) {
		resp, err := http.Get(url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("awaitio: fetch %s: %s", url, resp.Status)
		}
		return io.ReadAll(resp.Body)
	})
}
