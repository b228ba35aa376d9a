package install

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const redactedPlaceholder = "********"

// Redactor replaces known secret values with a placeholder. Redaction is a
// single boundary pass applied to log lines and outgoing messages, not a
// side effect scattered through parameter handling.
type Redactor struct {
	secrets []string
}

// NewRedactor builds a redactor for the given secret values. Empty values
// are ignored.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// Scrub replaces every known secret in s with the placeholder.
func (r *Redactor) Scrub(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, redactedPlaceholder)
	}
	return s
}

// ScrubErr returns the error text with secrets replaced, or "" for nil.
func (r *Redactor) ScrubErr(err error) string {
	if err == nil {
		return ""
	}
	return r.Scrub(err.Error())
}

// Hook returns a logrus hook that scrubs secrets from every log entry's
// message and string fields.
func (r *Redactor) Hook() logrus.Hook {
	return &scrubHook{redactor: r}
}

type scrubHook struct {
	redactor *Redactor
}

func (h *scrubHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *scrubHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.redactor.Scrub(entry.Message)
	for key, value := range entry.Data {
		if s, ok := value.(string); ok {
			entry.Data[key] = h.redactor.Scrub(s)
		}
	}
	return nil
}
