package apps

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the desired lifecycle phase of a release.
type Status string

const (
	// StatusRunning means the release should be installed and up to date.
	StatusRunning Status = "running"
	// StatusDeleted means the release should not exist in the cluster.
	StatusDeleted Status = "deleted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusRunning || s == StatusDeleted
}

// ParseStatus converts a user-supplied string into a Status.
// Matching is case-insensitive so "RUNNING" and "running" are equivalent.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q: %w", s, ErrInvalidArgument)
	}
	return st, nil
}

// UnmarshalJSON accepts a status in any letter case. An empty string
// leaves the status unset.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ManagedApplication is the desired state of one helm release.
type ManagedApplication struct {
	ReleaseName  string    `json:"releaseName"`
	ChartURL     string    `json:"chartUrl"`
	ChartVersion string    `json:"chartVersion"`
	Namespace    string    `json:"namespace"`
	Values       Values    `json:"values"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// LoadErr is set when a stored row could not be fully decoded. Such a
	// record fails validation and is never installed until an update
	// supplies new values.
	LoadErr error `json:"-"`
}

// Patch holds the fields of an update. Nil fields are left unchanged.
// The release name and namespace are not patchable; repeating the current
// value is accepted.
type Patch struct {
	ChartURL     *string `json:"chartUrl,omitempty"`
	ChartVersion *string `json:"chartVersion,omitempty"`
	Namespace    *string `json:"namespace,omitempty"`
	Values       Values  `json:"values,omitempty"`
	Status       *Status `json:"status,omitempty"`

	// ReleaseName is accepted only so that a body repeating the current
	// name can be decoded; any other value is rejected.
	ReleaseName *string `json:"releaseName,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.ChartURL == nil && p.ChartVersion == nil && p.Values == nil && p.Status == nil
}

// apply returns a copy of app with the patch applied.
func (p Patch) apply(app ManagedApplication) (ManagedApplication, error) {
	if p.ReleaseName != nil && *p.ReleaseName != app.ReleaseName {
		return app, fmt.Errorf("release name is immutable: %w", ErrInvalidArgument)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return app, fmt.Errorf("unknown status %q: %w", *p.Status, ErrInvalidArgument)
		}
		if app.Status == StatusDeleted && *p.Status == StatusRunning {
			return app, fmt.Errorf("release %q is deleted and cannot be restored: %w", app.ReleaseName, ErrInvalidArgument)
		}
		app.Status = *p.Status
	}
	if p.ChartURL != nil {
		app.ChartURL = *p.ChartURL
	}
	if p.ChartVersion != nil {
		app.ChartVersion = *p.ChartVersion
	}
	if p.Namespace != nil && *p.Namespace != app.Namespace {
		// The release lives in its namespace; moving the record would leave
		// the old release behind.
		return app, fmt.Errorf("namespace of %q is immutable, purge the record and create it again: %w",
			app.ReleaseName, ErrInvalidArgument)
	}
	if p.Values != nil {
		app.Values = p.Values
		app.LoadErr = nil
	}
	return app, nil
}

// MarshalValues encodes the values document for storage.
// A nil document is stored as an empty object.
func MarshalValues(v Values) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &ConfigurationError{Field: "values", Err: err}
	}
	return data, nil
}

// UnmarshalValues decodes a stored values document.
func UnmarshalValues(data []byte) (Values, error) {
	if len(data) == 0 {
		return Values{}, nil
	}
	var v Values
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ConfigurationError{Field: "values", Err: err}
	}
	if v == nil {
		v = Values{}
	}
	return v, nil
}
