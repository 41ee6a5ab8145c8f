package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentCommand(t *testing.T) {
	app := setupTestApp(t)

	require.NoError(t, NewCurrentCommand(app.App).Execute(app.ctx))
	assert.Equal(t, "No timer is running\n", app.output())

	require.NoError(t, NewStartCommand(app.App).Execute(app.ctx, app.projectID, nil, "Homepage"))
	app.output()

	app.clock.Advance(time.Hour + 2*time.Minute + 3*time.Second)
	require.NoError(t, NewCurrentCommand(app.App).Execute(app.ctx))
	assert.Equal(t, "running: entry 1, project 1, 01:02:03 Homepage\n", app.output())

	require.NoError(t, NewPauseCommand(app.App).Execute(app.ctx))
	app.output()
	app.clock.Advance(time.Hour)
	require.NoError(t, NewCurrentCommand(app.App).Execute(app.ctx))
	assert.Equal(t, "paused: entry 1, project 1, 01:02:03 Homepage\n", app.output())
}

func TestCurrentCommand_StaleStateIsDiscarded(t *testing.T) {
	app := setupTestApp(t)
	require.NoError(t, NewStartCommand(app.App).Execute(app.ctx, app.projectID, nil, ""))
	app.output()

	app.clock.Advance(25 * time.Hour)
	require.NoError(t, NewCurrentCommand(app.App).Execute(app.ctx))
	assert.Equal(t, "No timer is running\n", app.output())
}
