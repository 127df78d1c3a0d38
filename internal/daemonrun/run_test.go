package daemonrun_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toonvault/internal/daemonrun"
	"toonvault/internal/testsupport"
)

func TestBuildWiresDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	d, err := daemonrun.Build(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, d.Start(context.Background()))
	assert.True(t, d.Status().Running)
	assert.NotEmpty(t, d.APIAddr())
	d.Stop()
}

func TestBuildRejectsBadStorageURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Storage.URL = "://not-a-url"

	_, err := daemonrun.Build(cfg, nil)
	require.Error(t, err)
}
