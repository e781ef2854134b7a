package profile

import (
	"fmt"
	"strings"
)

// Documents are often written by hand, so every recognized field is read under
// both its camelCase and its hyphenated server-file name.
var (
	motdKeys                 = []string{"motd"}
	maxPlayersKeys           = []string{"maxPlayers", "max-players"}
	viewDistanceKeys         = []string{"viewDistance", "view-distance"}
	onlineModeKeys           = []string{"onlineMode", "online-mode"}
	enforceSecureProfileKeys = []string{"enforceSecureProfile", "enforce-secure-profile"}
	seedKeys                 = []string{"levelSeed", "seed", "level-seed", "world-seed"}
	chunkSystemKeys          = []string{"chunkSystem", "chunk-system"}
	targetTickDistanceKeys   = []string{"targetTickDistance", "target-tick-distance"}
)

// DefaultMotd is the welcome message a project starts with.
func DefaultMotd(identity ProjectIdentity) string {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		return DefaultMotdNoName
	}
	return fmt.Sprintf("Welcome to %s", name)
}

// DefaultServerProperties returns the field values used when a document has
// no server.properties entry.
func DefaultServerProperties(identity ProjectIdentity) ServerPropertiesFields {
	return ServerPropertiesFields{
		Include:              false,
		Motd:                 DefaultMotd(identity),
		MaxPlayers:           DefaultMaxPlayers,
		ViewDistance:         DefaultViewDistance,
		OnlineMode:           true,
		EnforceSecureProfile: false,
	}
}

func DefaultEngineGlobal() EngineGlobalFields {
	return EngineGlobalFields{Include: false, TargetTickDistance: DefaultTargetTickDistance}
}

// ExtractServerProperties reads the server.properties entry of doc. doc may be
// nil. The seed hint is returned separately because the seed belongs to the
// world settings; it is empty when the entry carries no seed.
func ExtractServerProperties(doc *Value, identity ProjectIdentity) (ServerPropertiesFields, string) {
	fields := DefaultServerProperties(identity)
	entry := findConfigEntry(doc, ServerPropertiesOutput, ServerPropertiesTemplate)
	if entry == nil {
		return fields, ""
	}
	data := entry.Get("data")

	fields.Include = true
	fields.Motd = CoerceString(data.Lookup(motdKeys...), fields.Motd)
	fields.MaxPlayers = CoerceNumberString(data.Lookup(maxPlayersKeys...), fields.MaxPlayers)
	fields.ViewDistance = CoerceNumberString(data.Lookup(viewDistanceKeys...), fields.ViewDistance)
	fields.OnlineMode = CoerceBoolean(data.Lookup(onlineModeKeys...), fields.OnlineMode)
	fields.EnforceSecureProfile = CoerceBoolean(data.Lookup(enforceSecureProfileKeys...), fields.EnforceSecureProfile)

	seed := strings.TrimSpace(CoerceString(data.Lookup(seedKeys...), ""))
	return fields, seed
}

// ExtractEngineGlobal reads chunkSystem.targetTickDistance of the paper-global entry.
func ExtractEngineGlobal(doc *Value) EngineGlobalFields {
	fields := DefaultEngineGlobal()
	entry := findConfigEntry(doc, PaperGlobalOutput, PaperGlobalTemplate)
	if entry == nil {
		return fields
	}
	chunkSystem := entry.Get("data").Lookup(chunkSystemKeys...)

	fields.Include = true
	fields.TargetTickDistance = CoerceNumberString(chunkSystem.Lookup(targetTickDistanceKeys...), fields.TargetTickDistance)
	return fields
}

// ExtractPlugins maps the plugins list, dropping entries without an id.
func ExtractPlugins(doc *Value) []PluginReference {
	out := make([]PluginReference, 0)
	for _, item := range doc.Get(KeyPlugins).Items() {
		id := strings.TrimSpace(CoerceString(item.Get("id"), ""))
		if id == "" {
			continue
		}
		out = append(out, PluginReference{
			ID:      id,
			Version: strings.TrimSpace(CoerceString(item.Get("version"), "")),
		})
	}
	return out
}

// ExtractWorld reads the world block. A missing world seed falls back to the
// seed found in server.properties.
func ExtractWorld(doc *Value, seedHint string) WorldSettings {
	world := doc.Get(KeyWorld)
	settings := WorldSettings{
		Mode: strings.TrimSpace(CoerceString(world.Lookup("mode", "type"), "")),
		Name: strings.TrimSpace(CoerceString(world.Get("name"), "")),
		Seed: strings.TrimSpace(CoerceString(world.Get("seed"), "")),
	}
	if settings.Mode == "" {
		settings.Mode = DefaultWorldMode
	}
	if settings.Name == "" {
		settings.Name = DefaultWorldName
	}
	if settings.Seed == "" {
		settings.Seed = strings.TrimSpace(seedHint)
	}
	return settings
}

// ExtractForm populates the whole editor state from doc (nil for a new profile).
func ExtractForm(doc *Value, identity ProjectIdentity) FormState {
	serverProps, seed := ExtractServerProperties(doc, identity)
	return FormState{
		World:            ExtractWorld(doc, seed),
		Plugins:          ExtractPlugins(doc),
		ServerProperties: serverProps,
		EngineGlobal:     ExtractEngineGlobal(doc),
	}
}

// PassthroughPaths lists the output of every config entry the editor does not
// understand, in document order and without duplicates.
func PassthroughPaths(doc *Value) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, item := range configFiles(doc) {
		if isServerProperties(item) || isPaperGlobal(item) {
			continue
		}
		output := strings.TrimSpace(CoerceString(item.Get("output"), ""))
		if output == "" {
			continue
		}
		if _, dup := seen[output]; dup {
			continue
		}
		seen[output] = struct{}{}
		out = append(out, output)
	}
	return out
}

// Unmanaged lists the top-level keys of doc that the builder never writes.
func Unmanaged(doc *Value) []string {
	out := make([]string, 0)
	for _, k := range doc.Mapping().Keys() {
		if !isOwnedKey(k) {
			out = append(out, k)
		}
	}
	return out
}

func isOwnedKey(key string) bool {
	for _, k := range OwnedKeys {
		if k == key {
			return true
		}
	}
	return false
}

func configFiles(doc *Value) []*Value {
	return doc.Path(KeyConfigs, "files").Items()
}

func findConfigEntry(doc *Value, output, template string) *Value {
	for _, item := range configFiles(doc) {
		if matchesEntry(item, output, template) {
			return item
		}
	}
	return nil
}

func matchesEntry(item *Value, output, template string) bool {
	if item.Kind() != KindMapping {
		return false
	}
	return strings.TrimSpace(CoerceString(item.Get("output"), "")) == output ||
		strings.TrimSpace(CoerceString(item.Get("template"), "")) == template
}

func isServerProperties(item *Value) bool {
	return matchesEntry(item, ServerPropertiesOutput, ServerPropertiesTemplate)
}

func isPaperGlobal(item *Value) bool {
	return matchesEntry(item, PaperGlobalOutput, PaperGlobalTemplate)
}
