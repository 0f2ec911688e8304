package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
	At             time.Time      `json:"at"`
}

// UnknownCommand reports a command name the interpreter ignored.
func UnknownCommand(name string) Diagnostic {
	return Diagnostic{
		Severity:       Info,
		Code:           "CMD.UNKNOWN",
		Summary:        "Unknown wrapper command ignored",
		LikelyCauses:   []string{"wrapped SDK is newer than this daemon"},
		SuggestedFixes: []string{"check the wrapper DLL version"},
		Evidence:       map[string]any{"command": name},
		At:             time.Now(),
	}
}

// BadPayload reports a command message that could not be decoded.
func BadPayload(err error) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     "CMD.DECODE",
		Summary:  "Malformed command payload",
		Detail:   err.Error(),
		At:       time.Now(),
	}
}

// DriverFallback reports that the requested driver failed and sim output is used.
func DriverFallback(driver string, err error) Diagnostic {
	return Diagnostic{
		Severity:       Warn,
		Code:           "DRV.FALLBACK",
		Summary:        "Driver init failed; using sim",
		Detail:         err.Error(),
		LikelyCauses:   []string{"spidev not enabled", "missing permissions on /dev/spidev*"},
		SuggestedFixes: []string{"enable SPI in the boot config", "run with -sim-only"},
		Evidence:       map[string]any{"driver": driver},
		At:             time.Now(),
	}
}

func TestRunning(kind string) Diagnostic {
	return Diagnostic{Severity: Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: kind, At: time.Now()}
}

func TestDone(kind string) Diagnostic {
	return Diagnostic{Severity: Info, Code: "TEST.DONE", Summary: "Test complete", Detail: kind, At: time.Now()}
}

func TestUnknown(kind string) Diagnostic {
	return Diagnostic{
		Severity: Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
		Evidence: map[string]any{"name": kind}, At: time.Now(),
	}
}
