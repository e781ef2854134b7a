package models

import (
	"testing"

	"github.com/payperplay/profiles/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestProject_PluginList(t *testing.T) {
	p := &Project{}
	assert.Empty(t, p.PluginList())

	p.Plugins = datatypes.JSON(`{"broken":`)
	assert.Empty(t, p.PluginList())

	plugins := []profile.PluginReference{{ID: "luckperms", Version: "5.4.0"}}
	require.NoError(t, p.SetPlugins(plugins))
	assert.JSONEq(t, `[{"id":"luckperms","version":"5.4.0"}]`, string(p.Plugins))
	assert.Equal(t, plugins, p.PluginList())

	require.NoError(t, p.SetPlugins(nil))
	assert.Equal(t, "[]", string(p.Plugins))
}

func TestProject_Identity(t *testing.T) {
	p := &Project{Name: "Aurora", MinecraftVersion: "1.21.1", Loader: "paper"}
	assert.Equal(t, profile.ProjectIdentity{Name: "Aurora", MinecraftVersion: "1.21.1", Loader: "paper"}, p.Identity())
}

func TestBeforeCreate_AssignsIDs(t *testing.T) {
	p := &Project{}
	require.NoError(t, p.BeforeCreate(nil))
	assert.NotEmpty(t, p.ID)

	f := &ProjectConfigFile{ID: "fixed"}
	require.NoError(t, f.BeforeCreate(nil))
	assert.Equal(t, "fixed", f.ID)
}

func TestConfigPaths(t *testing.T) {
	files := []ProjectConfigFile{{Path: "bukkit.yml"}, {Path: "spigot.yml"}}
	assert.Equal(t, []string{"bukkit.yml", "spigot.yml"}, ConfigPaths(files))
	assert.Empty(t, ConfigPaths(nil))
}
