package events

const sourceProfileService = "profile_service"

// PublishSessionOpened records a new edit session for a project
func (eb *EventBus) PublishSessionOpened(projectID string, hasDocument bool, configCount int) {
	eb.Publish(Event{
		Type:      EventSessionOpened,
		Source:    sourceProfileService,
		ProjectID: projectID,
		Data: map[string]interface{}{
			"has_document": hasDocument,
			"config_count": configCount,
		},
	})
}

// PublishSessionClosed records an edit session ending without a save
func (eb *EventBus) PublishSessionClosed(projectID, reason string) {
	eb.Publish(Event{
		Type:      EventSessionClosed,
		Source:    sourceProfileService,
		ProjectID: projectID,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishSessionSuperseded records that older sessions lost their token
func (eb *EventBus) PublishSessionSuperseded(projectID string, count int) {
	eb.Publish(Event{
		Type:      EventSessionSuperseded,
		Source:    sourceProfileService,
		ProjectID: projectID,
		Data: map[string]interface{}{
			"superseded": count,
		},
	})
}

// PublishProfileSaved records a stored profile document
func (eb *EventBus) PublishProfileSaved(projectID, path string, sizeBytes, pluginCount int, source string) {
	if source == "" {
		source = sourceProfileService
	}
	eb.Publish(Event{
		Type:      EventProfileSaved,
		Source:    source,
		ProjectID: projectID,
		Data: map[string]interface{}{
			"path":         path,
			"size_bytes":   sizeBytes,
			"plugin_count": pluginCount,
		},
	})
}

// PublishProfileSaveFailed records a failed save call
func (eb *EventBus) PublishProfileSaveFailed(projectID, errorMessage string) {
	eb.Publish(Event{
		Type:      EventProfileSaveFailed,
		Source:    sourceProfileService,
		ProjectID: projectID,
		Data: map[string]interface{}{
			"error_message": errorMessage,
		},
	})
}

// PublishParseFailed records persisted profile text that could not be decoded
func (eb *EventBus) PublishParseFailed(projectID, message string, line int) {
	eb.Publish(Event{
		Type:      EventParseFailed,
		Source:    sourceProfileService,
		ProjectID: projectID,
		Data: map[string]interface{}{
			"message": message,
			"line":    line,
		},
	})
}

// PublishPreviewDisabled records a build error that disabled the preview
func (eb *EventBus) PublishPreviewDisabled(projectID, field, reason string) {
	eb.Publish(Event{
		Type:      EventPreviewDisabled,
		Source:    sourceProfileService,
		ProjectID: projectID,
		Data: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	})
}
