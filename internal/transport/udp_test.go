package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopbackPair(t *testing.T) (server, client *UDPSocket) {
	t.Helper()

	client, err := ListenUDP("127.0.0.1:0", "")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server, err = ListenUDP("127.0.0.1:0", client.LocalAddr().String())
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	return server, client
}

func TestUDPSocket_SendReceive(t *testing.T) {
	server, client := newLoopbackPair(t)

	require.NoError(t, server.Send([]byte("hello")))

	got, err := client.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestUDPSocket_LearnsPeerFromFirstDatagram(t *testing.T) {
	server, client := newLoopbackPair(t)

	assert.ErrorIs(t, client.Send([]byte("early")), ErrNoPeer)

	require.NoError(t, server.Send([]byte("ping")))
	_, err := client.Receive()
	require.NoError(t, err)
	require.NotNil(t, client.Peer())
	assert.Equal(t, server.LocalAddr().String(), client.Peer().String())

	require.NoError(t, client.Send([]byte("input")))
	got, err := server.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte("input"), got)
}

func TestUDPSocket_ReceiveReturnsCopies(t *testing.T) {
	server, client := newLoopbackPair(t)

	require.NoError(t, server.Send([]byte("first")))
	require.NoError(t, server.Send([]byte("second")))

	a, err := client.Receive()
	require.NoError(t, err)
	b, err := client.Receive()
	require.NoError(t, err)

	assert.Equal(t, []byte("first"), a)
	assert.Equal(t, []byte("second"), b)
}

func TestUDPSocket_CloseUnblocksReceive(t *testing.T) {
	s, err := ListenUDP("127.0.0.1:0", "")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Receive()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not unblock after Close")
	}
}

func TestListenUDP_BindFailure(t *testing.T) {
	s, err := ListenUDP("127.0.0.1:0", "")
	require.NoError(t, err)
	defer s.Close()

	_, err = ListenUDP(s.LocalAddr().String(), "")
	assert.Error(t, err)
}
