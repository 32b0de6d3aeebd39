package recognition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findshroom/findshroom-server/internal/metrics"
)

func TestClientRecognize(t *testing.T) {
	backend := &fakeBackend{raw: `{"name":"Porcini","isEdible":true}`}
	obs := &recordingObserver{}
	c := NewClient(backend, obs, nil)

	res, err := c.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, "Porcini", res.Attributes.Name)
	assert.True(t, res.Attributes.IsEdible)
	assert.False(t, res.Degraded)
	assert.Equal(t, "fake", res.Backend)
	assert.Equal(t, []observation{{"fake", metrics.OutcomeOK}}, obs.obs)
}

func TestClientDegraded(t *testing.T) {
	backend := &fakeBackend{raw: "I think this is a chanterelle"}
	obs := &recordingObserver{}
	c := NewClient(backend, obs, nil)

	res, err := c.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	assert.Equal(t, DegradedName, res.Attributes.Name)
	assert.Equal(t, "I think this is a chanterelle", res.Attributes.Description)
	assert.False(t, res.Attributes.IsEdible)
	assert.Equal(t, []observation{{"fake", metrics.OutcomeDegraded}}, obs.obs)
}

func TestClientBackendErrorIsNotRetried(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	obs := &recordingObserver{}
	c := NewClient(backend, obs, nil)

	_, err := c.Recognize(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, []observation{{"fake", metrics.OutcomeError}}, obs.obs)
}

func TestClientRejectsEmptyImage(t *testing.T) {
	backend := &fakeBackend{}
	c := NewClient(backend, nil, nil)

	_, err := c.Recognize(context.Background(), nil)
	require.Error(t, err)
	assert.Zero(t, backend.calls)
}
