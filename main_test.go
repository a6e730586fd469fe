package main

import (
	"testing"

	"github.com/matt-g-everett/seqtx/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "login", datasetName("datasets/login.yaml"))
	assert.Equal(t, "flow", datasetName("/tmp/flow"))
}

func TestLoadDemos(t *testing.T) {
	config, err := readConfig("config.yaml")
	require.NoError(t, err)

	a := newApp(config)
	require.NoError(t, a.loadDemos())

	demos := a.Controller.Demos()
	require.Len(t, demos, 3)
	assert.Equal(t, "registration", demos[0].Name)
	assert.True(t, demos[0].Active)
	assert.Equal(t, "login", demos[2].Name)
	assert.Equal(t, 10, demos[2].Steps)
}

func TestLoadDemos_UnknownDefault(t *testing.T) {
	config := stream.NewConfig()
	config.Default = "missing"
	assert.ErrorIs(t, newApp(config).loadDemos(), stream.ErrUnknownDemo)
}

func TestReadConfig_Missing(t *testing.T) {
	config, err := readConfig("does-not-exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, stream.NewConfig(), config)
}
