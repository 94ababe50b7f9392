package wsutil

import "log/slog"

// SafeSend sends data to a channel without panicking if the channel is
// closed. If the channel is full or closed, the send is skipped; the client
// recovers via an idempotent snapshot pull. Panics are recovered and logged.
func SafeSend(ch chan []byte, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("send to closed channel skipped", "tag", "wsutil", "panic", r)
		}
	}()
	select {
	case ch <- data:
	default:
	}
}
