package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_ShallowOverlay(t *testing.T) {
	existing := mustParse(t, `
name: Old
initCommands:
  - say hi
world:
  mode: upload
  name: old
  custom: kept-only-if-world-is-not-generated
`)
	generated := mustParse(t, `
name: New
world:
  mode: generated
  name: world
mergePolicy:
  arrays: replace
`)
	merged := Merge(existing, generated)

	assert.Equal(t, []string{"name", "initCommands", "world", "mergePolicy"}, merged.Mapping().Keys())
	assert.Equal(t, "New", CoerceString(merged.Get("name"), ""))
	assert.Nil(t, merged.Path("world", "custom"))
	require.Len(t, merged.Get("initCommands").Items(), 1)
	assert.Equal(t, "say hi", CoerceString(merged.Get("initCommands").Items()[0], ""))

	// inputs are untouched
	assert.Equal(t, "Old", CoerceString(existing.Get("name"), ""))
	assert.Nil(t, existing.Get("mergePolicy"))
}

func TestMerge_NoExisting(t *testing.T) {
	generated := mustParse(t, "name: New\n")
	merged := Merge(nil, generated)
	assert.True(t, merged.Equal(generated))
}

func TestMergeDocument_PreservesUnmanagedKeys(t *testing.T) {
	existing := mustParse(t, `
initCommands: ["say hi"]
gamerules:
  keepInventory: true
plugins:
  - id: old
    version: "1"
`)
	doc, err := Build(sampleInput())
	require.NoError(t, err)

	merged := MergeDocument(existing, doc)
	require.Len(t, merged.Get("initCommands").Items(), 1)
	assert.Equal(t, "say hi", CoerceString(merged.Get("initCommands").Items()[0], ""))
	assert.True(t, CoerceBoolean(merged.Path("gamerules", "keepInventory"), false))
	assert.Equal(t, []PluginReference{{ID: "luckperms", Version: "5.4.0"}}, ExtractPlugins(merged))
}

func TestMergeDocument_NestedConfigFieldsAreReplaced(t *testing.T) {
	existing := mustParse(t, `
configs:
  files:
    - output: bukkit.yml
      template: bukkit.yml.hbs
      data:
        settings:
          allow-end: false
`)
	in := sampleInput()
	in.PassthroughConfigs = []string{"bukkit.yml"}
	doc, err := Build(in)
	require.NoError(t, err)

	merged := MergeDocument(existing, doc)
	var bukkit *Value
	for _, f := range merged.Path("configs", "files").Items() {
		if CoerceString(f.Get("output"), "") == "bukkit.yml" {
			bukkit = f
		}
	}
	require.NotNil(t, bukkit)
	assert.Equal(t, "", CoerceString(bukkit.Get("template"), "missing"))
	assert.Nil(t, bukkit.Get("data"))
}

func TestMergeDocument_DropsStaleOverrides(t *testing.T) {
	existing := mustParse(t, `
overrides:
  - path: paper-global.chunkSystem.targetTickDistance
    value: 9
`)
	in := sampleInput()
	in.EngineGlobal.Include = false
	doc, err := Build(in)
	require.NoError(t, err)

	merged := MergeDocument(existing, doc)
	assert.Nil(t, merged.Get(KeyOverrides))
}

func TestRegenerate(t *testing.T) {
	existing := mustParse(t, "initCommands: [\"say hi\"]\n")
	text, err := Regenerate(existing, sampleInput())
	require.NoError(t, err)
	assert.Contains(t, text, "initCommands:")
	assert.Contains(t, text, `name: "Aurora"`)

	in := sampleInput()
	in.EngineGlobal.TargetTickDistance = "99999999999999999999999"
	_, err = Regenerate(existing, in)
	var be *BuildError
	assert.ErrorAs(t, err, &be)
}
