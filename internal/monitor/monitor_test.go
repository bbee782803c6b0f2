package monitor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/courtlab/drillboard/internal/config"
	"github.com/courtlab/drillboard/internal/dispatcher"
	"github.com/courtlab/drillboard/internal/engine"
	"github.com/courtlab/drillboard/internal/logging"
	"github.com/courtlab/drillboard/internal/session"
	"github.com/courtlab/drillboard/internal/storage/memory"
	"github.com/courtlab/drillboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSaves int

func (f fixedSaves) Saves() int { return int(f) }

func newService(t *testing.T, statusFile string) (*Service, *session.Context) {
	t.Helper()
	lm := logging.NewSlogManager()
	lm.Setup(logging.Options{Level: "error"})

	sess := session.NewContext(nil)
	d, err := dispatcher.New(nil)
	require.NoError(t, err)

	backend := memory.New(config.MemoryConfig{})
	require.NoError(t, backend.Init())
	require.NoError(t, backend.Save(context.Background(), "warmup", []byte(`{}`)))

	return NewService(Dependencies{
		Session:    sess,
		Dispatcher: d,
		Backend:    backend,
		Autosave:   fixedSaves(3),
		LogManager: lm,
		StatusFile: statusFile,
		Interval:   10 * time.Millisecond,
	}), sess
}

func TestNewService_DefaultInterval(t *testing.T) {
	s := NewService(Dependencies{})
	assert.Equal(t, DefaultInterval, s.deps.Interval)
	assert.False(t, s.IsRunning())
}

func TestGetStatus(t *testing.T) {
	s, sess := newService(t, "")
	require.NoError(t, sess.Update(func(e *engine.Engine) error {
		_, err := e.Add(core.Entity{Kind: core.KindBall})
		return err
	}))

	st := s.GetStatus(context.Background())
	assert.Equal(t, 1, st.Entities)
	assert.Equal(t, 0, st.Relations)
	assert.Equal(t, uint64(1), st.Revision)
	assert.Equal(t, 3, st.Autosaves)
	assert.Equal(t, 1, st.Stored)
	assert.NotNil(t, st.Commands)
}

func TestStartStop_WritesStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s, _ := newService(t, path)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			return false
		}
		var st Status
		return json.Unmarshal(data, &st) == nil && st.Stored == 1
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}
