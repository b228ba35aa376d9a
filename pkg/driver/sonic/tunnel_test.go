package sonic

import (
	"net"
	"testing"
	"time"
)

func TestTunnel_AcceptLoopStopsOnClosedListener(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	tun := &Tunnel{
		localAddr: listener.Addr().String(),
		listener:  listener,
		done:      make(chan struct{}),
	}
	tun.wg.Add(1)
	go tun.acceptLoop()

	// a listener failing underneath the loop must stop it, not spin it
	listener.Close()

	stopped := make(chan struct{})
	go func() {
		tun.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop still running after the listener closed")
	}
}
