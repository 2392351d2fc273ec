package scorm

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Version string

const (
	Version12   Version = "1.2"
	Version2004 Version = "2004"
)

type PackageType string

const (
	PackageIframeOnly     PackageType = "iframe-only"
	PackageIframeWithCode PackageType = "iframe-with-code"
	PackageYouTube        PackageType = "youtube" // reserved: accepted, not playable yet
)

// Defaults applied by Normalize when a field is absent.
const (
	DefaultTitle             = "Untitled SCORM package"
	DefaultDescription       = "SCORM content generated with web2scorm"
	DefaultCodePromptMessage = "Please enter the code given at the end of the activity:"
	DefaultAlertMessageRight = "Congratulations!"
	DefaultAlertMessageWrong = "Incorrect code. Please try again."
	DefaultEndMessage        = "# Module completed\n\nCongratulations! You have completed this module."
	DefaultHeaderBgColor     = "#f0f0f0"
	DefaultHeaderTextColor   = "#000000"
	DefaultButtonBgColor     = "#1a57d1"
	DefaultButtonTextColor   = "#ffffff"
	DefaultButtonText        = "Validate"
)

// MaxAutoCompleteMinutes keeps the browser timer delay under 2^31-1 ms.
const MaxAutoCompleteMinutes = 35791

// Record is the configuration snapshot produced by the authoring form.
// A Record is passed by value; the engine never mutates the caller's copy.
type Record struct {
	ScormVersion Version     `json:"scormVersion" yaml:"scormVersion"`
	Title        string      `json:"title,omitempty" yaml:"title,omitempty"`
	Description  string      `json:"description,omitempty" yaml:"description,omitempty"`
	Duration     int         `json:"duration,omitempty" yaml:"duration,omitempty"` // minutes, 0 = absent
	PackageType  PackageType `json:"packageType,omitempty" yaml:"packageType,omitempty"`

	IframeContent string `json:"iframeContent,omitempty" yaml:"iframeContent,omitempty"`

	AutoCompleteEnabled  bool `json:"autoCompleteEnabled,omitempty" yaml:"autoCompleteEnabled,omitempty"`
	AutoCompleteDuration int  `json:"autoCompleteDuration,omitempty" yaml:"autoCompleteDuration,omitempty"` // minutes

	CompletionCode    string `json:"completionCode,omitempty" yaml:"completionCode,omitempty"`
	CodePromptMessage string `json:"codePromptMessage,omitempty" yaml:"codePromptMessage,omitempty"`
	AlertMessageRight string `json:"alertMessageRight,omitempty" yaml:"alertMessageRight,omitempty"`
	AlertMessageWrong string `json:"alertMessageWrong,omitempty" yaml:"alertMessageWrong,omitempty"`
	EndMessage        string `json:"endMessage,omitempty" yaml:"endMessage,omitempty"` // Markdown

	Logo            string `json:"logo,omitempty" yaml:"logo,omitempty"` // data URI or URL
	HeaderBgColor   string `json:"headerBgColor,omitempty" yaml:"headerBgColor,omitempty"`
	HeaderTextColor string `json:"headerTextColor,omitempty" yaml:"headerTextColor,omitempty"`
	ButtonBgColor   string `json:"buttonBgColor,omitempty" yaml:"buttonBgColor,omitempty"`
	ButtonTextColor string `json:"buttonTextColor,omitempty" yaml:"buttonTextColor,omitempty"`
	ButtonText      string `json:"buttonText,omitempty" yaml:"buttonText,omitempty"`

	YouTubeVideoID string `json:"youtubeVideoId,omitempty" yaml:"youtubeVideoId,omitempty"`
}

var ErrInvalidConfig = errors.New("invalid configuration record")

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ConfigError lists every defect found in a Record.
type ConfigError struct {
	Fields []FieldError
}

func (e *ConfigError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Normalize returns a copy of r with defaults filled in.
func (r Record) Normalize() Record {
	r.ScormVersion = Version(strings.TrimSpace(string(r.ScormVersion)))
	r.PackageType = PackageType(strings.TrimSpace(string(r.PackageType)))
	if r.PackageType == "" {
		r.PackageType = PackageIframeOnly
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		r.Description = DefaultDescription
	}
	r.IframeContent = strings.TrimSpace(r.IframeContent)
	r.Logo = strings.TrimSpace(r.Logo)

	r.CodePromptMessage = orDefault(r.CodePromptMessage, DefaultCodePromptMessage)
	r.AlertMessageRight = orDefault(r.AlertMessageRight, DefaultAlertMessageRight)
	r.AlertMessageWrong = orDefault(r.AlertMessageWrong, DefaultAlertMessageWrong)
	r.EndMessage = orDefault(r.EndMessage, DefaultEndMessage)
	r.HeaderBgColor = orDefault(r.HeaderBgColor, DefaultHeaderBgColor)
	r.HeaderTextColor = orDefault(r.HeaderTextColor, DefaultHeaderTextColor)
	r.ButtonBgColor = orDefault(r.ButtonBgColor, DefaultButtonBgColor)
	r.ButtonTextColor = orDefault(r.ButtonTextColor, DefaultButtonTextColor)
	r.ButtonText = orDefault(r.ButtonText, DefaultButtonText)

	// auto-complete only exists for iframe-only packages
	if r.PackageType != PackageIframeOnly {
		r.AutoCompleteEnabled = false
		r.AutoCompleteDuration = 0
	}
	return r
}

// Validate reports configuration defects. It expects a normalized record.
func (r Record) Validate() error {
	var errs []FieldError
	add := func(field, reason string) { errs = append(errs, FieldError{Field: field, Reason: reason}) }

	switch r.ScormVersion {
	case Version12, Version2004:
	case "":
		add("scormVersion", "required")
	default:
		add("scormVersion", fmt.Sprintf("unsupported version %q (want 1.2 or 2004)", r.ScormVersion))
	}

	switch r.PackageType {
	case PackageIframeOnly, PackageIframeWithCode:
		if r.IframeContent == "" {
			add("iframeContent", "required for "+string(r.PackageType))
		}
	case PackageYouTube:
	default:
		add("packageType", fmt.Sprintf("unknown package type %q", r.PackageType))
	}

	if r.Duration < 0 {
		add("duration", "must not be negative")
	}

	if r.PackageType == PackageIframeOnly && r.AutoCompleteEnabled {
		if r.AutoCompleteDuration < 1 || r.AutoCompleteDuration > MaxAutoCompleteMinutes {
			add("autoCompleteDuration", fmt.Sprintf("must be between 1 and %d minutes", MaxAutoCompleteMinutes))
		}
	}

	if r.PackageType == PackageIframeWithCode {
		if r.CompletionCode == "" {
			add("completionCode", "required for iframe-with-code")
		}
		for _, c := range []struct{ field, value string }{
			{"headerBgColor", r.HeaderBgColor},
			{"headerTextColor", r.HeaderTextColor},
			{"buttonBgColor", r.ButtonBgColor},
			{"buttonTextColor", r.ButtonTextColor},
		} {
			if !hexColor.MatchString(c.value) {
				add(c.field, fmt.Sprintf("%q is not a hex color", c.value))
			}
		}
	}

	if len(errs) > 0 {
		return &ConfigError{Fields: errs}
	}
	return nil
}

// Trigger returns the completion strategy selected by the record.
func (r Record) Trigger() Trigger {
	switch r.PackageType {
	case PackageIframeWithCode:
		return CodeGate{
			Code:         r.CompletionCode,
			PromptText:   r.CodePromptMessage,
			RightMessage: r.AlertMessageRight,
			WrongMessage: r.AlertMessageWrong,
		}
	case PackageYouTube:
		return VideoWatch{VideoID: r.YouTubeVideoID}
	default:
		if r.AutoCompleteEnabled {
			return Timer{Minutes: r.AutoCompleteDuration}
		}
		return Manual{}
	}
}

// ParseRecord decodes a record from YAML or JSON (JSON is valid YAML).
func ParseRecord(data []byte) (Record, error) {
	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

// LoadRecord reads a record file from disk.
func LoadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	return ParseRecord(data)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
