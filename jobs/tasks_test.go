package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/bookward/bookward/testing"
)

func TestNewAccountPurgeTask(t *testing.T) {
	task, err := NewAccountPurgeTask(AccountPurgePayload{Retention: 48 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, TaskAccountPurge, task.Type())

	var payload AccountPurgePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 48*time.Hour, payload.Retention)
}

func TestHandleTaskSkipsRetryOnBadPayload(t *testing.T) {
	purger := NewPurger(nil, nil, 720*time.Hour)

	task := asynq.NewTask(TaskAccountPurge, []byte("{not json"))
	err := purger.HandleTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
