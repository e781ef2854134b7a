package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) *Value {
	t.Helper()
	doc, err := Parse(&text)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

func TestExtractServerProperties_Defaults(t *testing.T) {
	fields, seed := ExtractServerProperties(nil, ProjectIdentity{Name: "Aurora"})

	assert.Equal(t, ServerPropertiesFields{
		Include:              false,
		Motd:                 "Welcome to Aurora",
		MaxPlayers:           "20",
		ViewDistance:         "10",
		OnlineMode:           true,
		EnforceSecureProfile: false,
	}, fields)
	assert.Empty(t, seed)
}

func TestExtractServerProperties_BlankNameMotd(t *testing.T) {
	fields, _ := ExtractServerProperties(nil, ProjectIdentity{Name: "  "})
	assert.Equal(t, DefaultMotdNoName, fields.Motd)
}

func TestExtractServerProperties_DualKeys(t *testing.T) {
	hyphenated := mustParse(t, `
configs:
  files:
    - template: server.properties.hbs
      output: server.properties
      data:
        online-mode: false
        max-players: 42
        view-distance: "12"
        enforce-secure-profile: "TRUE"
        level-seed: -4172144997902289642
`)
	camel := mustParse(t, `
configs:
  files:
    - template: server.properties.hbs
      output: server.properties
      data:
        onlineMode: false
        maxPlayers: 42
        viewDistance: "12"
        enforceSecureProfile: true
        levelSeed: "-4172144997902289642"
`)
	id := ProjectIdentity{Name: "Aurora"}
	a, seedA := ExtractServerProperties(hyphenated, id)
	b, seedB := ExtractServerProperties(camel, id)

	assert.Equal(t, a, b)
	assert.True(t, a.Include)
	assert.False(t, a.OnlineMode)
	assert.True(t, a.EnforceSecureProfile)
	assert.Equal(t, "42", a.MaxPlayers)
	assert.Equal(t, "12", a.ViewDistance)
	assert.Equal(t, "Welcome to Aurora", a.Motd)
	assert.Equal(t, "-4172144997902289642", seedA)
	assert.Equal(t, seedA, seedB)
}

func TestExtractServerProperties_MatchByTemplateOnly(t *testing.T) {
	doc := mustParse(t, `
configs:
  files:
    - template: server.properties.hbs
      output: custom/server.properties
      data:
        motd: From template
`)
	fields, _ := ExtractServerProperties(doc, ProjectIdentity{Name: "x"})
	assert.True(t, fields.Include)
	assert.Equal(t, "From template", fields.Motd)
}

func TestExtractServerProperties_MalformedValuesFallBack(t *testing.T) {
	doc := mustParse(t, `
configs:
  files:
    - output: server.properties
      data:
        motd: [not, text]
        maxPlayers: {}
        onlineMode: maybe
        seed: 99
`)
	fields, seed := ExtractServerProperties(doc, ProjectIdentity{Name: "Aurora"})
	assert.True(t, fields.Include)
	assert.Equal(t, "Welcome to Aurora", fields.Motd)
	assert.Equal(t, "20", fields.MaxPlayers)
	assert.True(t, fields.OnlineMode)
	assert.Equal(t, "99", seed)
}

func TestExtractServerProperties_EntryWithoutData(t *testing.T) {
	doc := mustParse(t, `
configs:
  files:
    - output: server.properties
`)
	fields, seed := ExtractServerProperties(doc, ProjectIdentity{Name: "Aurora"})
	want := DefaultServerProperties(ProjectIdentity{Name: "Aurora"})
	want.Include = true
	assert.Equal(t, want, fields)
	assert.Empty(t, seed)
}

func TestExtractEngineGlobal(t *testing.T) {
	assert.Equal(t, EngineGlobalFields{Include: false, TargetTickDistance: "6"}, ExtractEngineGlobal(nil))

	camel := mustParse(t, `
configs:
  files:
    - output: config/paper-global.yml
      data:
        chunkSystem:
          targetTickDistance: 8
`)
	assert.Equal(t, EngineGlobalFields{Include: true, TargetTickDistance: "8"}, ExtractEngineGlobal(camel))

	hyphenated := mustParse(t, `
configs:
  files:
    - template: paper-global.yml.hbs
      output: elsewhere.yml
      data:
        chunk-system:
          target-tick-distance: " 4 "
`)
	assert.Equal(t, EngineGlobalFields{Include: true, TargetTickDistance: "4"}, ExtractEngineGlobal(hyphenated))
}

func TestExtractPlugins_DropsEmptyIDs(t *testing.T) {
	doc := mustParse(t, `
plugins:
  - id: " luckperms "
    version: " 5.4 "
  - id: ""
    version: "1"
  - version: "2"
  - id: worldedit
  - just-a-string
`)
	assert.Equal(t, []PluginReference{
		{ID: "luckperms", Version: "5.4"},
		{ID: "worldedit", Version: ""},
	}, ExtractPlugins(doc))

	assert.Empty(t, ExtractPlugins(nil))
}

func TestExtractWorld(t *testing.T) {
	assert.Equal(t, WorldSettings{Mode: "generated", Name: "world"}, ExtractWorld(nil, ""))
	assert.Equal(t, WorldSettings{Mode: "generated", Name: "world", Seed: "42"}, ExtractWorld(nil, "42"))

	doc := mustParse(t, `
world:
  mode: upload
  name: lobby
  seed: 7
`)
	assert.Equal(t, WorldSettings{Mode: "upload", Name: "lobby", Seed: "7"}, ExtractWorld(doc, "42"))
}

func TestPassthroughPathsAndUnmanaged(t *testing.T) {
	doc := mustParse(t, `
name: Aurora
initCommands: ["say hi"]
configs:
  files:
    - output: server.properties
    - output: config/paper-global.yml
    - output: bukkit.yml
    - output: plugins/LuckPerms/config.yml
    - output: bukkit.yml
    - template: ""
gamerules:
  keepInventory: true
`)
	assert.Equal(t, []string{"bukkit.yml", "plugins/LuckPerms/config.yml"}, PassthroughPaths(doc))
	assert.Equal(t, []string{"initCommands", "gamerules"}, Unmanaged(doc))
}

func TestExtractServerProperties_NullAliasFallsThrough(t *testing.T) {
	doc := mustParse(t, `
configs:
  files:
    - template: server.properties.hbs
      output: server.properties
      data:
        onlineMode:
        online-mode: false
        maxPlayers: null
        max-players: 42
`)
	fields, _ := ExtractServerProperties(doc, ProjectIdentity{Name: "Aurora"})
	assert.False(t, fields.OnlineMode)
	assert.Equal(t, "42", fields.MaxPlayers)
}

func TestExtractWorld_SeedBeyondInt64(t *testing.T) {
	doc := mustParse(t, "world: {seed: 18446744073709551615}\n")
	assert.Equal(t, "18446744073709551615", ExtractWorld(doc, "").Seed)
}
