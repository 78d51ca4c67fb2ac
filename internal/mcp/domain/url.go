package domain

import (
	"fmt"
	"strings"
)

// parseSessionIDFromLogURI extracts the session ID from a URI of the form
// ludos://sessions/{session_id}/log. It requires an actual session ID: the
// template placeholder and empty segments are rejected.
func parseSessionIDFromLogURI(uri string) (string, error) {
	prefix := "ludos://sessions/"
	suffix := "/log"

	if !strings.HasPrefix(uri, prefix) {
		return "", fmt.Errorf("URI must start with %q", prefix)
	}
	if !strings.HasSuffix(uri, suffix) {
		return "", fmt.Errorf("URI must end with %q", suffix)
	}

	sessionID := strings.TrimPrefix(uri, prefix)
	sessionID = strings.TrimSuffix(sessionID, suffix)
	sessionID = strings.TrimSpace(sessionID)

	if sessionID == "" {
		return "", fmt.Errorf("session ID is required in URI")
	}
	if sessionID == "_" || sessionID == "{session_id}" {
		return "", fmt.Errorf("session ID placeholder %q is not a valid session ID", sessionID)
	}
	if strings.Contains(sessionID, "/") {
		return "", fmt.Errorf("session ID %q must not contain path separators", sessionID)
	}

	return sessionID, nil
}
