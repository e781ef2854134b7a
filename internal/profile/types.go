package profile

// Recognized config files. Everything else under configs.files is carried as-is.
const (
	ServerPropertiesOutput   = "server.properties"
	ServerPropertiesTemplate = "server.properties.hbs"
	PaperGlobalOutput        = "config/paper-global.yml"
	PaperGlobalTemplate      = "paper-global.yml.hbs"

	// TargetTickDistanceOverride is the override path mirroring
	// chunkSystem.targetTickDistance of the paper-global entry.
	TargetTickDistanceOverride = "paper-global.chunkSystem.targetTickDistance"
)

const (
	ArraysReplace = "replace"
	ArraysMerge   = "merge"
)

const (
	DefaultWorldMode          = "generated"
	DefaultWorldName          = "world"
	DefaultMaxPlayers         = "20"
	DefaultViewDistance       = "10"
	DefaultTargetTickDistance = "6"
	DefaultMotdNoName         = "A Minecraft Server"

	// Fallbacks used by the builder when a numeric field does not parse
	fallbackPlayerCount  = 10
	fallbackViewDistance = 10
	fallbackTickDistance = 6
)

// Top-level keys written by the builder
const (
	KeyName        = "name"
	KeyMinecraft   = "minecraft"
	KeyWorld       = "world"
	KeyPlugins     = "plugins"
	KeyConfigs     = "configs"
	KeyOverrides   = "overrides"
	KeyMergePolicy = "mergePolicy"
)

// OwnedKeys lists every top-level key the builder may produce.
var OwnedKeys = []string{KeyName, KeyMinecraft, KeyWorld, KeyPlugins, KeyConfigs, KeyOverrides, KeyMergePolicy}

// ProjectIdentity is the read-only project information a profile is built for
type ProjectIdentity struct {
	Name             string `json:"name"`
	MinecraftVersion string `json:"minecraftVersion"`
	Loader           string `json:"loader"`
}

type PluginReference struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

type WorldSettings struct {
	Mode string `json:"mode"`
	Name string `json:"name"`
	Seed string `json:"seed,omitempty"`
}

// ConfigFileEntry is one item of configs.files. Output is the unique key.
type ConfigFileEntry struct {
	Template string
	Output   string
	Data     *Value
}

// ServerPropertiesFields is the typed view of the server.properties entry.
// Include=false means the document has no such entry.
type ServerPropertiesFields struct {
	Include              bool   `json:"include"`
	Motd                 string `json:"motd"`
	MaxPlayers           string `json:"maxPlayers"`
	ViewDistance         string `json:"viewDistance"`
	OnlineMode           bool   `json:"onlineMode"`
	EnforceSecureProfile bool   `json:"enforceSecureProfile"`
}

// EngineGlobalFields is the typed view of the paper-global entry.
type EngineGlobalFields struct {
	Include            bool   `json:"include"`
	TargetTickDistance string `json:"targetTickDistance"`
}

type Override struct {
	Path  string
	Value *Value
}

type MinecraftSpec struct {
	Loader  string
	Version string
}

type MergePolicy struct {
	Arrays string
}

// Document is the generated part of a profile. Keys the builder does not own
// live only in the previously persisted tree and reach the output through Merge.
type Document struct {
	Name        string
	Minecraft   MinecraftSpec
	World       WorldSettings
	Plugins     []PluginReference
	Files       []ConfigFileEntry
	Overrides   []Override
	MergePolicy MergePolicy
}

// FormState is everything the editor lets a user change.
type FormState struct {
	World            WorldSettings          `json:"world"`
	Plugins          []PluginReference      `json:"plugins"`
	ServerProperties ServerPropertiesFields `json:"serverProperties"`
	EngineGlobal     EngineGlobalFields     `json:"engineGlobal"`
}

// BuildInput carries the current editor state plus the config files known to
// exist for the project.
type BuildInput struct {
	Identity           ProjectIdentity
	World              WorldSettings
	Plugins            []PluginReference
	ServerProperties   ServerPropertiesFields
	EngineGlobal       EngineGlobalFields
	PassthroughConfigs []string
}

// Input combines a form with the identity and config list it is built against.
func (f FormState) Input(identity ProjectIdentity, configPaths []string) BuildInput {
	return BuildInput{
		Identity:           identity,
		World:              f.World,
		Plugins:            f.Plugins,
		ServerProperties:   f.ServerProperties,
		EngineGlobal:       f.EngineGlobal,
		PassthroughConfigs: configPaths,
	}
}

// Tree renders the document in its fixed key order.
func (d *Document) Tree() *Value {
	root := NewMapping()
	root.Set(KeyName, String(d.Name))

	mc := NewMapping()
	mc.Set("loader", String(d.Minecraft.Loader))
	mc.Set("version", String(d.Minecraft.Version))
	root.Set(KeyMinecraft, Map(mc))

	world := NewMapping()
	world.Set("mode", String(d.World.Mode))
	world.Set("name", String(d.World.Name))
	if d.World.Seed != "" {
		world.Set("seed", String(d.World.Seed))
	}
	root.Set(KeyWorld, Map(world))

	plugins := make([]*Value, 0, len(d.Plugins))
	for _, p := range d.Plugins {
		pm := NewMapping()
		pm.Set("id", String(p.ID))
		pm.Set("version", String(p.Version))
		plugins = append(plugins, Map(pm))
	}
	root.Set(KeyPlugins, Seq(plugins...))

	files := make([]*Value, 0, len(d.Files))
	for _, f := range d.Files {
		fm := NewMapping()
		fm.Set("template", String(f.Template))
		fm.Set("output", String(f.Output))
		if f.Data != nil {
			fm.Set("data", f.Data.Clone())
		}
		files = append(files, Map(fm))
	}
	configs := NewMapping()
	configs.Set("files", Seq(files...))
	root.Set(KeyConfigs, Map(configs))

	if len(d.Overrides) > 0 {
		overrides := make([]*Value, 0, len(d.Overrides))
		for _, o := range d.Overrides {
			om := NewMapping()
			om.Set("path", String(o.Path))
			om.Set("value", o.Value.Clone())
			overrides = append(overrides, Map(om))
		}
		root.Set(KeyOverrides, Seq(overrides...))
	}

	policy := NewMapping()
	policy.Set("arrays", String(d.MergePolicy.Arrays))
	root.Set(KeyMergePolicy, Map(policy))

	return Map(root)
}
