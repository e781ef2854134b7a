package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/payperplay/profiles/internal/events"
	"github.com/payperplay/profiles/internal/models"
	"github.com/payperplay/profiles/internal/profile"
	"github.com/payperplay/profiles/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjects struct {
	mu         sync.Mutex
	projects   map[string]models.Project
	configs    map[string][]models.ProjectConfigFile
	configsErr error
}

func (f *fakeProjects) FetchProject(_ context.Context, id string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProjects) FetchProjectConfigs(_ context.Context, id string) ([]models.ProjectConfigFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.configsErr != nil {
		return nil, f.configsErr
	}
	return f.configs[id], nil
}

type fakeProfiles struct {
	mu         sync.Mutex
	texts      map[string]string
	fetchErr   error
	saveErr    error
	saves      int
	beforeSave func()
}

func (f *fakeProfiles) FetchProfile(_ context.Context, id string) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	t, ok := f.texts[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeProfiles) SaveProfile(_ context.Context, id, text string) (*models.ProfileSaveResult, error) {
	if f.beforeSave != nil {
		f.beforeSave()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saves++
	f.texts[id] = text

	plugins := []profile.PluginReference{}
	if doc, err := profile.Parse(&text); err == nil && doc != nil {
		plugins = profile.ExtractPlugins(doc)
	}
	return &models.ProfileSaveResult{
		Path:    repository.ProfilePath("profiles", id),
		Plugins: plugins,
		Configs: []models.ProjectConfigFile{{Path: "bukkit.yml"}},
	}, nil
}

func (f *fakeProfiles) text(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[id]
}

func (f *fakeProfiles) setText(id, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[id] = text
}

func newTestService(t *testing.T) (*ProfileService, *fakeProjects, *fakeProfiles) {
	t.Helper()
	aurora := models.Project{ID: "p1", Name: "Aurora", MinecraftVersion: "1.21.1", Loader: "paper"}
	require.NoError(t, aurora.SetPlugins([]profile.PluginReference{{ID: "luckperms", Version: "5.4.0"}}))

	projects := &fakeProjects{
		projects: map[string]models.Project{"p1": aurora},
		configs: map[string][]models.ProjectConfigFile{
			"p1": {{Path: "bukkit.yml", SizeBytes: 120}, {Path: "server.properties", SizeBytes: 80}},
		},
	}
	profiles := &fakeProfiles{texts: map[string]string{}}
	svc := NewProfileService(projects, profiles, events.NewEventBus(nil), time.Hour)
	return svc, projects, profiles
}

const storedProfile = `name: Aurora
world:
  mode: generated
  name: survival
  seed: "42"
plugins:
  - id: luckperms
    version: 5.4.0
configs:
  files:
    - template: server.properties.hbs
      output: server.properties
      data:
        motd: Hi there
        max-players: 50
    - output: bukkit.yml
initCommands:
  - say hi
`

func TestOpenSession_NewProfile(t *testing.T) {
	svc, _, _ := newTestService(t)

	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)

	assert.NotEmpty(t, sess.Token)
	assert.False(t, sess.HasDocument)
	assert.Equal(t, "Aurora", sess.Project.Name)
	assert.Len(t, sess.Configs, 2)
	assert.Equal(t, []profile.PluginReference{{ID: "luckperms", Version: "5.4.0"}}, sess.Form.Plugins)
	assert.Equal(t, profile.DefaultServerProperties(sess.Project.Identity()), sess.Form.ServerProperties)
	assert.Equal(t, "Welcome to Aurora", sess.Form.ServerProperties.Motd)
	assert.Equal(t, profile.WorldSettings{Mode: "generated", Name: "world"}, sess.Form.World)
	assert.Empty(t, sess.Unmanaged)
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestOpenSession_ExistingProfile(t *testing.T) {
	svc, _, profiles := newTestService(t)
	profiles.setText("p1", storedProfile)

	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, sess.HasDocument)
	assert.Equal(t, profile.WorldSettings{Mode: "generated", Name: "survival", Seed: "42"}, sess.Form.World)
	assert.True(t, sess.Form.ServerProperties.Include)
	assert.Equal(t, "Hi there", sess.Form.ServerProperties.Motd)
	assert.Equal(t, "50", sess.Form.ServerProperties.MaxPlayers)
	assert.False(t, sess.Form.EngineGlobal.Include)
	assert.Equal(t, []string{"initCommands"}, sess.Unmanaged)
	assert.Equal(t, []string{"bukkit.yml"}, sess.Passthrough)
}

func TestOpenSession_ParseErrorBlocksEditing(t *testing.T) {
	svc, _, profiles := newTestService(t)
	profiles.setText("p1", "name: [unclosed\n")

	sess, err := svc.OpenSession(context.Background(), "p1")
	assert.Nil(t, sess)

	var pe *profile.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, profile.CodeParseError, pe.Code)
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestOpenSession_UnknownProject(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.OpenSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestOpenSession_ConfigFailureIsTolerated(t *testing.T) {
	svc, projects, _ := newTestService(t)
	projects.configsErr = errors.New("listing timed out")

	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, sess.Configs)
	assert.Empty(t, sess.Configs)
}

func TestOpenSession_ProfileFetchFailure(t *testing.T) {
	svc, _, profiles := newTestService(t)
	profiles.fetchErr = errors.New("connection refused")

	_, err := svc.OpenSession(context.Background(), "p1")
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestPreview(t *testing.T) {
	svc, _, profiles := newTestService(t)
	profiles.setText("p1", storedProfile)
	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)

	preview, err := svc.Preview(context.Background(), sess.Token, sess.Form)
	require.NoError(t, err)
	assert.False(t, preview.Disabled)
	assert.Contains(t, preview.Text, `name: "Aurora"`)
	assert.Contains(t, preview.Text, "initCommands:")
	assert.Contains(t, preview.Text, `output: "bukkit.yml"`)
	assert.Equal(t, 0, profiles.saves)
}

func TestPreview_BuildErrorDisablesPreview(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)

	form := sess.Form
	form.EngineGlobal = profile.EngineGlobalFields{Include: true, TargetTickDistance: "99999999999999999999999"}

	preview, err := svc.Preview(context.Background(), sess.Token, form)
	require.NoError(t, err)
	assert.True(t, preview.Disabled)
	assert.Equal(t, "targetTickDistance", preview.Field)
	assert.Empty(t, preview.Text)
}

func TestSave_MergesWithRefetchedDocument(t *testing.T) {
	svc, _, profiles := newTestService(t)
	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)

	// edited out of band after the session was opened
	profiles.setText("p1", "initCommands:\n  - say hi\n")

	form := sess.Form
	form.ServerProperties.Include = true
	form.ServerProperties.MaxPlayers = "abc"

	result, err := svc.Save(context.Background(), sess.Token, form)
	require.NoError(t, err)

	stored := profiles.text("p1")
	assert.Equal(t, result.Text, stored)
	assert.Contains(t, stored, "say hi")
	assert.Contains(t, stored, "maxPlayers: 10")
	assert.Equal(t, "profiles/p1/profile.yml", result.Path)
	assert.Equal(t, []profile.PluginReference{{ID: "luckperms", Version: "5.4.0"}}, result.Plugins)

	// the saved text is the new baseline for previews
	preview, err := svc.Preview(context.Background(), sess.Token, form)
	require.NoError(t, err)
	assert.Equal(t, stored, preview.Text)
}

func TestSave_RefetchedDocumentUnparseable(t *testing.T) {
	svc, _, profiles := newTestService(t)
	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)

	profiles.setText("p1", "- just\n- a list\n")

	_, err = svc.Save(context.Background(), sess.Token, sess.Form)
	var pe *profile.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, profiles.saves)
}

func TestSave_FailureKeepsSessionForRetry(t *testing.T) {
	svc, _, profiles := newTestService(t)
	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)

	profiles.saveErr = errors.New("validation failed: disk quota")
	_, err = svc.Save(context.Background(), sess.Token, sess.Form)

	var se *SaveError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "p1", se.ProjectID)
	assert.Contains(t, err.Error(), "validation failed: disk quota")

	profiles.saveErr = nil
	_, err = svc.Save(context.Background(), sess.Token, sess.Form)
	assert.NoError(t, err)
	assert.Equal(t, 1, profiles.saves)
}

func TestSessions_NewSessionSupersedesOld(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.OpenSession(ctx, "p1")
	require.NoError(t, err)
	second, err := svc.OpenSession(ctx, "p1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = svc.Preview(ctx, first.Token, first.Form)
	assert.ErrorIs(t, err, ErrSessionSuperseded)
	_, err = svc.Save(ctx, first.Token, first.Form)
	assert.ErrorIs(t, err, ErrSessionSuperseded)

	_, err = svc.Preview(ctx, second.Token, second.Form)
	assert.NoError(t, err)
	assert.Equal(t, 1, svc.ActiveSessions())

	assert.NoError(t, svc.Close(first.Token))
}

func TestSave_SupersededWhileInFlight(t *testing.T) {
	svc, _, profiles := newTestService(t)
	ctx := context.Background()

	sess, err := svc.OpenSession(ctx, "p1")
	require.NoError(t, err)

	profiles.beforeSave = func() {
		profiles.beforeSave = nil
		_, err := svc.OpenSession(ctx, "p1")
		require.NoError(t, err)
	}

	result, err := svc.Save(ctx, sess.Token, sess.Form)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSessionSuperseded)

	// last write wins: the write itself is not undone
	assert.Equal(t, 1, profiles.saves)
	assert.True(t, strings.Contains(profiles.text("p1"), `name: "Aurora"`))
}

func TestSessions_ExpireAfterIdleTimeout(t *testing.T) {
	svc, _, _ := newTestService(t)
	clock := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, clock.Add(time.Hour), sess.ExpiresAt)

	clock = clock.Add(50 * time.Minute)
	_, err = svc.Preview(context.Background(), sess.Token, sess.Form)
	require.NoError(t, err)

	// activity resets the idle timer
	clock = clock.Add(50 * time.Minute)
	_, err = svc.Preview(context.Background(), sess.Token, sess.Form)
	require.NoError(t, err)

	clock = clock.Add(61 * time.Minute)
	_, err = svc.Preview(context.Background(), sess.Token, sess.Form)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestClose(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess, err := svc.OpenSession(context.Background(), "p1")
	require.NoError(t, err)

	require.NoError(t, svc.Close(sess.Token))
	assert.ErrorIs(t, svc.Close(sess.Token), ErrSessionNotFound)

	_, err = svc.Preview(context.Background(), sess.Token, sess.Form)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveRaw(t *testing.T) {
	svc, _, profiles := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveRaw(ctx, "p1", "plugins: [unclosed\n")
	var pe *profile.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, profiles.saves)

	_, err = svc.SaveRaw(ctx, "missing", storedProfile)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	result, err := svc.SaveRaw(ctx, "p1", storedProfile)
	require.NoError(t, err)
	assert.Equal(t, storedProfile, profiles.text("p1"))
	assert.Equal(t, []profile.PluginReference{{ID: "luckperms", Version: "5.4.0"}}, result.Plugins)
}

func TestFetchProfileText(t *testing.T) {
	svc, _, profiles := newTestService(t)
	ctx := context.Background()

	text, err := svc.FetchProfileText(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, text)

	profiles.setText("p1", storedProfile)
	text, err = svc.FetchProfileText(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, text)
	assert.Equal(t, storedProfile, *text)

	_, err = svc.FetchProfileText(ctx, "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", resultLabel(nil))
	assert.Equal(t, "superseded", resultLabel(ErrSessionSuperseded))
	assert.Equal(t, "not_found", resultLabel(ErrSessionNotFound))
	assert.Equal(t, "save_failed", resultLabel(&SaveError{Err: errors.New("x")}))
	assert.Equal(t, "parse_error", resultLabel(&profile.ParseError{}))
}
