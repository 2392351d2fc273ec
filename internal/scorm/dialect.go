package scorm

import "fmt"

// Dialect captures everything that differs between SCORM 1.2 and 2004.
// It is selected once per build; no other component branches on the version.
type Dialect interface {
	Version() Version
	// ManifestRoot returns the encoding/xml root for imsmanifest.xml.
	ManifestRoot(ms ManifestSpec) any
	// Lifecycle names the RTE functions and data-model elements the bridge uses.
	Lifecycle() Lifecycle
}

// Lifecycle is serialized verbatim into the runtime bridge.
type Lifecycle struct {
	APIName        string `json:"apiName"`
	Initialize     string `json:"initialize"`
	Terminate      string `json:"terminate"`
	GetValue       string `json:"getValue"`
	SetValue       string `json:"setValue"`
	Commit         string `json:"commit"`
	GetLastError   string `json:"getLastError"`
	GetErrorString string `json:"getErrorString"`

	StatusElement      string   `json:"statusElement"`
	SuccessElement     string   `json:"successElement"` // empty when the dialect has none
	SessionTimeElement string   `json:"sessionTimeElement"`
	ExitElement        string   `json:"exitElement"`
	ExitNormal         string   `json:"exitNormal"`
	FreshStatuses      []string `json:"freshStatuses"`    // statuses that may move to incomplete
	TerminalStatuses   []string `json:"terminalStatuses"` // statuses never overwritten by completion
	TimeFormat         string   `json:"timeFormat"`       // "hhmmss" or "iso8601"
}

// DialectFor returns the dialect for v.
func DialectFor(v Version) (Dialect, error) {
	switch v {
	case Version12:
		return scorm12{}, nil
	case Version2004:
		return scorm2004{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported SCORM version %q", ErrInvalidConfig, v)
	}
}

type scorm12 struct{}

func (scorm12) Version() Version { return Version12 }

func (scorm12) Lifecycle() Lifecycle {
	return Lifecycle{
		APIName:            "API",
		Initialize:         "LMSInitialize",
		Terminate:          "LMSFinish",
		GetValue:           "LMSGetValue",
		SetValue:           "LMSSetValue",
		Commit:             "LMSCommit",
		GetLastError:       "LMSGetLastError",
		GetErrorString:     "LMSGetErrorString",
		StatusElement:      "cmi.core.lesson_status",
		SessionTimeElement: "cmi.core.session_time",
		ExitElement:        "cmi.core.exit",
		ExitNormal:         "",
		FreshStatuses:      []string{"", "not attempted"},
		TerminalStatuses:   []string{"passed", "failed", "completed"},
		TimeFormat:         "hhmmss",
	}
}

func (scorm12) ManifestRoot(ms ManifestSpec) any { return newManifest12(ms) }

type scorm2004 struct{}

func (scorm2004) Version() Version { return Version2004 }

func (scorm2004) Lifecycle() Lifecycle {
	return Lifecycle{
		APIName:            "API_1484_11",
		Initialize:         "Initialize",
		Terminate:          "Terminate",
		GetValue:           "GetValue",
		SetValue:           "SetValue",
		Commit:             "Commit",
		GetLastError:       "GetLastError",
		GetErrorString:     "GetErrorString",
		StatusElement:      "cmi.completion_status",
		SuccessElement:     "cmi.success_status",
		SessionTimeElement: "cmi.session_time",
		ExitElement:        "cmi.exit",
		ExitNormal:         "normal",
		FreshStatuses:      []string{"", "not attempted", "unknown"},
		TerminalStatuses:   []string{"completed"},
		TimeFormat:         "iso8601",
	}
}

func (scorm2004) ManifestRoot(ms ManifestSpec) any { return newManifest2004(ms) }
