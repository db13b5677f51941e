package chatstore

import "github.com/clearstack/opsdesk/internal/config"

// UnifiedKey derives the cross-surface history key for a signed-in email,
// falling back to the shared guest key before sign-in.
func UnifiedKey(email string) string {
	if email == "" {
		return config.UnifiedKeyGuest
	}
	return config.UnifiedKeyPrefix + email
}

// ProjectFeatureKey derives the feature key for the project chat surface.
// The unbound surface shares one key; a bound project gets its own.
func ProjectFeatureKey(projectID string) string {
	if projectID == "" || projectID == config.DefaultProjectID {
		return config.FeatureKeyWorkChat
	}
	return config.FeatureKeyProjectPrefix + projectID
}
