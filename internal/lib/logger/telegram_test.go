package logger

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []string
}

func (s *recordingSender) SendMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSender) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func TestTelegramHandler_ForwardsAboveLevel(t *testing.T) {
	base := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sender := &recordingSender{}
	log := SetupTelegramHandler(base, sender, slog.LevelError).With(slog.String("mod", "test"))

	log.Info("quiet")
	log.Error("loud", slog.String("room", "general"))

	require.Eventually(t, func() bool { return len(sender.messages()) == 1 }, time.Second, 10*time.Millisecond)
	msg := sender.messages()[0]
	assert.Contains(t, msg, "ERROR: loud")
	assert.Contains(t, msg, "mod: test")
	assert.Contains(t, msg, "room: general")
}

func TestSetupTelegramHandler_NilSender(t *testing.T) {
	base := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, base, SetupTelegramHandler(base, nil, slog.LevelError))
}
