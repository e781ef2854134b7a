package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/payperplay/profiles/internal/events"
	"github.com/payperplay/profiles/internal/models"
	"github.com/payperplay/profiles/internal/monitoring"
	"github.com/payperplay/profiles/internal/profile"
	"github.com/payperplay/profiles/internal/repository"
	"github.com/payperplay/profiles/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultSessionTTL is used when no idle timeout is configured
const DefaultSessionTTL = 2 * time.Hour

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrSessionNotFound   = errors.New("profile session not found or expired")
	ErrSessionSuperseded = errors.New("profile session was superseded by a newer session")
)

// SaveError wraps a failed store call. The session stays usable so the
// caller can retry.
type SaveError struct {
	ProjectID string
	Err       error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save profile for project %s: %v", e.ProjectID, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// ProjectSource provides read-only project data
type ProjectSource interface {
	FetchProject(ctx context.Context, projectID string) (*models.Project, error)
	FetchProjectConfigs(ctx context.Context, projectID string) ([]models.ProjectConfigFile, error)
}

// ProfileStore reads and writes persisted profile text. FetchProfile returns
// nil when the project has no profile yet.
type ProfileStore interface {
	FetchProfile(ctx context.Context, projectID string) (*string, error)
	SaveProfile(ctx context.Context, projectID, text string) (*models.ProfileSaveResult, error)
}

// Session is what an editor gets when it opens a profile for editing
type Session struct {
	Token       string                     `json:"token"`
	Project     *models.Project            `json:"project"`
	Configs     []models.ProjectConfigFile `json:"configs"`
	Form        profile.FormState          `json:"form"`
	Unmanaged   []string                   `json:"unmanaged"`
	Passthrough []string                   `json:"passthrough"`
	HasDocument bool                       `json:"hasDocument"`
	ExpiresAt   time.Time                  `json:"expiresAt"`
}

// Preview is the text a save would currently produce. Disabled is set when
// the form cannot be built; that is not an error.
type Preview struct {
	Text     string `json:"text"`
	Disabled bool   `json:"disabled"`
	Field    string `json:"field,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// SaveResult is returned by a successful save
type SaveResult struct {
	Text    string                     `json:"text"`
	Path    string                     `json:"path"`
	Plugins []profile.PluginReference  `json:"plugins"`
	Configs []models.ProjectConfigFile `json:"configs"`
}

type editSession struct {
	token     string
	projectID string
	project   models.Project
	configs   []models.ProjectConfigFile
	doc       *profile.Value
	lastUsed  time.Time
}

// ProfileService runs profile edit sessions: open, preview, save, close
type ProfileService struct {
	projects ProjectSource
	profiles ProfileStore
	bus      *events.EventBus
	ttl      time.Duration
	now      func() time.Time

	mu         sync.Mutex
	sessions   map[string]*editSession
	current    map[string]string    // projectID -> newest token
	superseded map[string]time.Time // token -> when it was superseded
}

// NewProfileService creates a new profile service
func NewProfileService(projects ProjectSource, profiles ProfileStore, bus *events.EventBus, ttl time.Duration) *ProfileService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if bus == nil {
		bus = events.GetEventBus()
	}
	return &ProfileService{
		projects:   projects,
		profiles:   profiles,
		bus:        bus,
		ttl:        ttl,
		now:        time.Now,
		sessions:   make(map[string]*editSession),
		current:    make(map[string]string),
		superseded: make(map[string]time.Time),
	}
}

// FetchProject returns the project or ErrProjectNotFound
func (s *ProfileService) FetchProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.projects.FetchProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return project, nil
}

// FetchProjectConfigs returns the config files of an existing project
func (s *ProfileService) FetchProjectConfigs(ctx context.Context, projectID string) ([]models.ProjectConfigFile, error) {
	if _, err := s.FetchProject(ctx, projectID); err != nil {
		return nil, err
	}
	configs, err := s.projects.FetchProjectConfigs(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project configs: %w", err)
	}
	if configs == nil {
		configs = []models.ProjectConfigFile{}
	}
	return configs, nil
}

// FetchProfileText returns the stored profile text of an existing project,
// nil when it has none
func (s *ProfileService) FetchProfileText(ctx context.Context, projectID string) (*string, error) {
	if _, err := s.FetchProject(ctx, projectID); err != nil {
		return nil, err
	}
	text, err := s.profiles.FetchProfile(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return text, nil
}

// OpenSession fetches project, configs and profile in parallel, decodes the
// profile and starts an edit session. A newer session for the same project
// supersedes older ones. Persisted text that does not parse is returned as a
// *profile.ParseError and no session is created.
func (s *ProfileService) OpenSession(ctx context.Context, projectID string) (sess *Session, err error) {
	defer observe("open", time.Now(), &err)

	var (
		project *models.Project
		configs []models.ProjectConfigFile
		text    *string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.FetchProject(gctx, projectID)
		project = p
		return err
	})
	g.Go(func() error {
		c, err := s.projects.FetchProjectConfigs(gctx, projectID)
		if err != nil {
			logger.Warn("Failed to fetch project configs, continuing without them", map[string]interface{}{
				"project_id": projectID,
				"error":      err.Error(),
			})
			return nil
		}
		configs = c
		return nil
	})
	g.Go(func() error {
		t, err := s.profiles.FetchProfile(gctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}
		text = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if configs == nil {
		configs = []models.ProjectConfigFile{}
	}

	doc, err := profile.Parse(text)
	if err != nil {
		var pe *profile.ParseError
		if errors.As(err, &pe) {
			s.bus.PublishParseFailed(projectID, pe.Message, pe.Line)
		}
		logger.Warn("Stored profile could not be parsed", map[string]interface{}{
			"project_id": projectID,
			"error":      err.Error(),
		})
		return nil, err
	}

	identity := project.Identity()
	form := profile.ExtractForm(doc, identity)
	if doc == nil {
		// new profile: start from the project's current plugins
		form.Plugins = project.PluginList()
	}

	now := s.now()
	es := &editSession{
		token:     uuid.New().String(),
		projectID: projectID,
		project:   *project,
		configs:   configs,
		doc:       doc,
		lastUsed:  now,
	}

	s.mu.Lock()
	s.sweepLocked(now)
	superseded := 0
	if old, ok := s.current[projectID]; ok {
		if _, live := s.sessions[old]; live {
			delete(s.sessions, old)
			s.superseded[old] = now
			superseded++
		}
	}
	s.sessions[es.token] = es
	s.current[projectID] = es.token
	monitoring.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if superseded > 0 {
		s.bus.PublishSessionSuperseded(projectID, superseded)
	}
	s.bus.PublishSessionOpened(projectID, doc != nil, len(configs))

	logger.Info("Profile edit session opened", map[string]interface{}{
		"project_id":   projectID,
		"has_document": doc != nil,
		"configs":      len(configs),
	})

	return &Session{
		Token:       es.token,
		Project:     project,
		Configs:     configs,
		Form:        form,
		Unmanaged:   profile.Unmanaged(doc),
		Passthrough: profile.PassthroughPaths(doc),
		HasDocument: doc != nil,
		ExpiresAt:   now.Add(s.ttl),
	}, nil
}

// Preview renders what saving form would produce against the document read
// when the session was opened
func (s *ProfileService) Preview(ctx context.Context, token string, form profile.FormState) (preview *Preview, err error) {
	defer observe("preview", time.Now(), &err)

	es, err := s.lookup(token)
	if err != nil {
		return nil, err
	}

	text, err := profile.Regenerate(es.doc, form.Input(es.project.Identity(), models.ConfigPaths(es.configs)))
	if err != nil {
		var be *profile.BuildError
		if errors.As(err, &be) {
			s.bus.PublishPreviewDisabled(es.projectID, be.Field, be.Message)
			return &Preview{Disabled: true, Field: be.Field, Reason: be.Error()}, nil
		}
		return nil, err
	}
	return &Preview{Text: text}, nil
}

// Save regenerates the profile against a freshly fetched copy of the stored
// document and writes it. Concurrent saves are last-write-wins. If the
// session was superseded or closed while the save was in flight the result
// is discarded and ErrSessionSuperseded returned; the write is not undone.
func (s *ProfileService) Save(ctx context.Context, token string, form profile.FormState) (result *SaveResult, err error) {
	defer observe("save", time.Now(), &err)

	es, err := s.lookup(token)
	if err != nil {
		return nil, err
	}
	log := logger.WithFields(map[string]interface{}{"project_id": es.projectID})

	text, err := s.profiles.FetchProfile(ctx, es.projectID)
	if err != nil {
		return nil, &SaveError{ProjectID: es.projectID, Err: fmt.Errorf("re-fetch before save: %w", err)}
	}
	existing, err := profile.Parse(text)
	if err != nil {
		var pe *profile.ParseError
		if errors.As(err, &pe) {
			s.bus.PublishParseFailed(es.projectID, pe.Message, pe.Line)
		}
		return nil, err
	}

	out, err := profile.Regenerate(existing, form.Input(es.project.Identity(), models.ConfigPaths(es.configs)))
	if err != nil {
		return nil, err
	}

	saved, err := s.profiles.SaveProfile(ctx, es.projectID, out)
	if err != nil {
		s.bus.PublishProfileSaveFailed(es.projectID, err.Error())
		log.Error("Failed to save profile", err)
		return nil, &SaveError{ProjectID: es.projectID, Err: err}
	}

	baseline, err := profile.Parse(&out)
	if err != nil {
		return nil, fmt.Errorf("saved profile does not re-parse: %w", err)
	}

	s.mu.Lock()
	cur, live := s.sessions[token]
	if live {
		cur.doc = baseline
		cur.configs = saved.Configs
		if err := cur.project.SetPlugins(saved.Plugins); err != nil {
			log.Warn("Failed to refresh cached plugin list")
		}
		cur.lastUsed = s.now()
	}
	s.mu.Unlock()

	monitoring.ProfileDocumentBytes.Observe(float64(len(out)))
	s.bus.PublishProfileSaved(es.projectID, saved.Path, len(out), len(saved.Plugins), "")

	if !live {
		log.Warn("Profile saved but session ended meanwhile, discarding result")
		return nil, ErrSessionSuperseded
	}

	log.Info("Profile saved")
	return &SaveResult{
		Text:    out,
		Path:    saved.Path,
		Plugins: saved.Plugins,
		Configs: saved.Configs,
	}, nil
}

// SaveRaw stores hand-written profile text for a project. Text that does not
// parse is rejected with a *profile.ParseError.
func (s *ProfileService) SaveRaw(ctx context.Context, projectID, text string) (result *models.ProfileSaveResult, err error) {
	defer observe("save_raw", time.Now(), &err)

	if _, err := s.FetchProject(ctx, projectID); err != nil {
		return nil, err
	}
	if _, err := profile.Parse(&text); err != nil {
		return nil, err
	}

	saved, err := s.profiles.SaveProfile(ctx, projectID, text)
	if err != nil {
		s.bus.PublishProfileSaveFailed(projectID, err.Error())
		return nil, &SaveError{ProjectID: projectID, Err: err}
	}

	monitoring.ProfileDocumentBytes.Observe(float64(len(text)))
	s.bus.PublishProfileSaved(projectID, saved.Path, len(text), len(saved.Plugins), "profile_api")
	return saved, nil
}

// Close discards a session without saving
func (s *ProfileService) Close(token string) error {
	s.mu.Lock()
	es, ok := s.sessions[token]
	if ok {
		s.dropLocked(es)
	}
	_, wasSuperseded := s.superseded[token]
	delete(s.superseded, token)
	monitoring.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if !ok {
		if wasSuperseded {
			return nil
		}
		return ErrSessionNotFound
	}

	s.bus.PublishSessionClosed(es.projectID, "closed")
	return nil
}

// ActiveSessions returns the number of open sessions
func (s *ProfileService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// lookup returns a snapshot of a live session and refreshes its idle timer
func (s *ProfileService) lookup(token string) (editSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	es, ok := s.sessions[token]
	if !ok {
		if _, gone := s.superseded[token]; gone {
			return editSession{}, ErrSessionSuperseded
		}
		return editSession{}, ErrSessionNotFound
	}
	if now.Sub(es.lastUsed) > s.ttl {
		s.dropLocked(es)
		monitoring.SessionsExpiredTotal.Inc()
		monitoring.ActiveSessions.Set(float64(len(s.sessions)))
		return editSession{}, ErrSessionNotFound
	}
	es.lastUsed = now
	return *es, nil
}

func (s *ProfileService) dropLocked(es *editSession) {
	delete(s.sessions, es.token)
	if s.current[es.projectID] == es.token {
		delete(s.current, es.projectID)
	}
}

// sweepLocked removes idle sessions and forgets old superseded tokens
func (s *ProfileService) sweepLocked(now time.Time) {
	for _, es := range s.sessions {
		if now.Sub(es.lastUsed) > s.ttl {
			s.dropLocked(es)
			monitoring.SessionsExpiredTotal.Inc()
		}
	}
	for token, at := range s.superseded {
		if now.Sub(at) > s.ttl {
			delete(s.superseded, token)
		}
	}
}

func observe(operation string, start time.Time, err *error) {
	monitoring.ProfileOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	monitoring.ProfileOperationsTotal.WithLabelValues(operation, resultLabel(*err)).Inc()
}

func resultLabel(err error) string {
	var se *SaveError
	switch {
	case err == nil:
		return monitoring.ResultOK
	case errors.Is(err, ErrSessionSuperseded):
		return monitoring.ResultSuperseded
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrProjectNotFound):
		return monitoring.ResultNotFound
	case errors.As(err, &se):
		return monitoring.ResultSaveFailed
	default:
		return monitoring.ResultLabel(err)
	}
}
