package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_QuotesStrings(t *testing.T) {
	m := NewMapping()
	m.Set("text", String("20"))
	m.Set("flag", String("true"))
	m.Set("count", Int(20))
	m.Set("ratio", Float(0.5))
	m.Set("whole", Float(3))
	m.Set("on", Bool(true))
	m.Set("none", Null())
	m.Set("list", Seq())
	m.Set("123", String("numeric key"))

	text, err := Serialize(Map(m))
	require.NoError(t, err)

	assert.Contains(t, text, `text: "20"`)
	assert.Contains(t, text, `flag: "true"`)
	assert.Contains(t, text, "count: 20\n")
	assert.Contains(t, text, "ratio: 0.5\n")
	assert.Contains(t, text, "whole: 3.0\n")
	assert.Contains(t, text, "on: true\n")
	assert.Contains(t, text, "none: null\n")
	assert.Contains(t, text, "list: []\n")

	back := mustParse(t, text)
	assert.True(t, back.Equal(Map(m)), "re-parse changed the tree:\n%s", text)
}

func TestSerialize_MultilineString(t *testing.T) {
	m := NewMapping()
	m.Set("motd", String("line one\nline \"two\""))
	text, err := Serialize(Map(m))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(text), "\n")+1)

	back := mustParse(t, text)
	assert.Equal(t, "line one\nline \"two\"", CoerceString(back.Get("motd"), ""))
}

func TestRoundTrip_FieldGroups(t *testing.T) {
	in := sampleInput()
	doc, err := Build(in)
	require.NoError(t, err)

	text, err := Serialize(doc.Tree())
	require.NoError(t, err)
	parsed := mustParse(t, text)

	form := ExtractForm(parsed, in.Identity)
	assert.Equal(t, in.World, form.World)
	assert.Equal(t, in.Plugins, form.Plugins)
	assert.Equal(t, in.ServerProperties, form.ServerProperties)
	assert.Equal(t, in.EngineGlobal, form.EngineGlobal)
	assert.Equal(t, []string{"bukkit.yml", "spigot.yml"}, PassthroughPaths(parsed))
}

func TestRoundTrip_ExcludedGroupsComeBackAsDefaults(t *testing.T) {
	in := sampleInput()
	in.ServerProperties.Include = false
	in.EngineGlobal.Include = false

	doc, err := Build(in)
	require.NoError(t, err)
	text, err := Serialize(doc.Tree())
	require.NoError(t, err)

	form := ExtractForm(mustParse(t, text), in.Identity)
	assert.Equal(t, DefaultServerProperties(in.Identity), form.ServerProperties)
	assert.Equal(t, DefaultEngineGlobal(), form.EngineGlobal)
}

func TestIdempotence_BuildExtractBuild(t *testing.T) {
	inputs := map[string]BuildInput{
		"full": sampleInput(),
		"messy": func() BuildInput {
			in := sampleInput()
			in.ServerProperties.MaxPlayers = "abc"
			in.ServerProperties.ViewDistance = " 16 chunks"
			in.Plugins = append(in.Plugins, PluginReference{ID: " ", Version: "1"})
			in.World = WorldSettings{Name: "  ", Seed: " 77 "}
			return in
		}(),
		"minimal": {Identity: ProjectIdentity{Name: "Solo"}},
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			first, err := Build(in)
			require.NoError(t, err)
			text, err := Serialize(first.Tree())
			require.NoError(t, err)

			parsed := mustParse(t, text)
			form := ExtractForm(parsed, in.Identity)
			second, err := Build(form.Input(in.Identity, PassthroughPaths(parsed)))
			require.NoError(t, err)

			assert.True(t, first.Tree().Equal(second.Tree()))
		})
	}
}

func TestScenario_PassthroughPreservation(t *testing.T) {
	existing := mustParse(t, "initCommands: [\"say hi\"]\n")
	doc, err := Build(sampleInput())
	require.NoError(t, err)
	require.Nil(t, doc.Tree().Get("initCommands"))

	text, err := Serialize(MergeDocument(existing, doc))
	require.NoError(t, err)

	saved := mustParse(t, text)
	items := saved.Get("initCommands").Items()
	require.Len(t, items, 1)
	assert.Equal(t, "say hi", CoerceString(items[0], ""))
}

func TestRoundTrip_IntegerBeyondInt64KeepsLiteral(t *testing.T) {
	doc := mustParse(t, "big: 18446744073709551615\nneg: -99999999999999999999\n")

	text, err := Serialize(doc)
	require.NoError(t, err)
	assert.Contains(t, text, "big: 18446744073709551615\n")
	assert.Contains(t, text, "neg: -99999999999999999999\n")
	assert.True(t, mustParse(t, text).Equal(doc))
}
