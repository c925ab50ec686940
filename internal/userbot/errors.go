package userbot

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/gotd/td/pool"
	"github.com/gotd/td/rpc"
	"github.com/gotd/td/tgerr"

	"presencebot/internal/monitor"
)

// classifyError translates transport and RPC errors into the categories the
// polling loop acts on.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if d, ok := tgerr.AsFloodWait(err); ok {
		return &monitor.FloodWaitError{Wait: d}
	}
	if monitor.IsConnectionLost(err) || !isConnectivity(err) {
		return err
	}
	return fmt.Errorf("%w: %w", monitor.ErrConnectionLost, err)
}

func isConnectivity(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, pool.ErrConnDead) ||
		errors.Is(err, rpc.ErrEngineClosed) {
		return true
	}
	return false
}
