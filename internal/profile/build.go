package profile

import (
	"strings"
)

// Build generates the managed part of a profile. Identical input always
// produces an identical document.
func Build(in BuildInput) (*Document, error) {
	world := normalizeWorld(in.World)

	doc := &Document{
		Name: strings.TrimSpace(in.Identity.Name),
		Minecraft: MinecraftSpec{
			Loader:  strings.TrimSpace(in.Identity.Loader),
			Version: strings.TrimSpace(in.Identity.MinecraftVersion),
		},
		Plugins:     filterPlugins(in.Plugins),
		Files:       make([]ConfigFileEntry, 0),
		MergePolicy: MergePolicy{Arrays: ArraysReplace},
	}

	if in.ServerProperties.Include {
		entry, err := serverPropertiesEntry(in.ServerProperties, world.Seed)
		if err != nil {
			return nil, err
		}
		doc.Files = append(doc.Files, entry)
	}

	if in.EngineGlobal.Include {
		tick, err := intField("targetTickDistance", in.EngineGlobal.TargetTickDistance, fallbackTickDistance)
		if err != nil {
			return nil, err
		}
		chunkSystem := NewMapping()
		chunkSystem.Set("targetTickDistance", Int(int64(tick)))
		data := NewMapping()
		data.Set("chunkSystem", Map(chunkSystem))

		doc.Files = append(doc.Files, ConfigFileEntry{
			Template: PaperGlobalTemplate,
			Output:   PaperGlobalOutput,
			Data:     Map(data),
		})
		doc.Overrides = append(doc.Overrides, Override{
			Path:  TargetTickDistanceOverride,
			Value: Int(int64(tick)),
		})
	}

	seen := make(map[string]struct{}, len(doc.Files)+len(in.PassthroughConfigs))
	seen[ServerPropertiesOutput] = struct{}{}
	seen[PaperGlobalOutput] = struct{}{}
	for _, path := range in.PassthroughConfigs {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		doc.Files = append(doc.Files, ConfigFileEntry{Output: path})
	}

	doc.World = world

	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func filterPlugins(plugins []PluginReference) []PluginReference {
	out := make([]PluginReference, 0, len(plugins))
	for _, p := range plugins {
		id := strings.TrimSpace(p.ID)
		version := strings.TrimSpace(p.Version)
		if id == "" || version == "" {
			continue
		}
		out = append(out, PluginReference{ID: id, Version: version})
	}
	return out
}

func normalizeWorld(w WorldSettings) WorldSettings {
	out := WorldSettings{
		Mode: strings.TrimSpace(w.Mode),
		Name: strings.TrimSpace(w.Name),
		Seed: strings.TrimSpace(w.Seed),
	}
	if out.Mode == "" {
		out.Mode = DefaultWorldMode
	}
	if out.Name == "" {
		out.Name = DefaultWorldName
	}
	return out
}

func serverPropertiesEntry(f ServerPropertiesFields, seed string) (ConfigFileEntry, error) {
	maxPlayers, err := intField("maxPlayers", f.MaxPlayers, fallbackPlayerCount)
	if err != nil {
		return ConfigFileEntry{}, err
	}
	viewDistance, err := intField("viewDistance", f.ViewDistance, fallbackViewDistance)
	if err != nil {
		return ConfigFileEntry{}, err
	}

	data := NewMapping()
	data.Set("motd", String(f.Motd))
	data.Set("maxPlayers", Int(int64(maxPlayers)))
	data.Set("viewDistance", Int(int64(viewDistance)))
	data.Set("onlineMode", Bool(f.OnlineMode))
	data.Set("enforceSecureProfile", Bool(f.EnforceSecureProfile))
	if seed != "" {
		data.Set("levelSeed", String(seed))
	}

	return ConfigFileEntry{
		Template: ServerPropertiesTemplate,
		Output:   ServerPropertiesOutput,
		Data:     Map(data),
	}, nil
}

// intField parses the leading integer of text, using fallback when there is
// none. Digits too large for int are an invariant violation, not a fallback.
func intField(field, text string, fallback int) (int, error) {
	n, found, err := leadingInt(text)
	if err != nil {
		return 0, newBuildError(field, "value is out of range", err)
	}
	if !found {
		return fallback, nil
	}
	return n, nil
}

func (d *Document) validate() error {
	outputs := make(map[string]struct{}, len(d.Files))
	for _, f := range d.Files {
		if _, dup := outputs[f.Output]; dup {
			return newBuildError("configs.files", "duplicate output "+f.Output, nil)
		}
		outputs[f.Output] = struct{}{}
	}

	_, hasPaper := outputs[PaperGlobalOutput]
	if hasPaper != (len(d.Overrides) > 0) {
		return newBuildError("overrides", "overrides out of sync with paper-global entry", nil)
	}
	for _, o := range d.Overrides {
		if !o.Value.finite() {
			return newBuildError("overrides", "override "+o.Path+" is not a finite number", nil)
		}
	}
	return nil
}
