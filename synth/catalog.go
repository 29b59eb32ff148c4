package synth

import (
	"golang.org/x/text/language"
)

// Catalog holds the user-facing text for one locale.
type Catalog struct {
	Tag    language.Tag
	Labels map[Phase]string

	Preparing     string
	UploadStarted string
	UploadPercent string // %d: upload ratio in percent
	UploadBytes   string // %s: human-readable byte count
	Scan          []string
	Recognition   []string
	Finishing     string
	Receiving     string
	Completed     string
	Failures      map[FailureKind]string

	Seconds string // %d
	Minutes string // %d:%02d
}

// Label returns the short status label for p.
func (c *Catalog) Label(p Phase) string {
	if l, ok := c.Labels[p]; ok {
		return l
	}
	return p.String()
}

// FailureMessage returns the text shown for f. Server-supplied messages
// are surfaced verbatim.
func (c *Catalog) FailureMessage(f Failure) string {
	if f.Kind == FailureServer && f.Message != "" {
		return f.Message
	}
	if msg, ok := c.Failures[f.Kind]; ok {
		return msg
	}
	return c.Failures[FailureUnexpected]
}

var english = &Catalog{
	Tag: language.English,
	Labels: map[Phase]string{
		PhasePreparing:    "Preparing",
		PhaseUploading:    "Uploading",
		PhaseSecurityScan: "Security scan",
		PhaseRecognition:  "Text recognition",
		PhaseComplete:     "Complete",
		PhaseError:        "Error",
	},
	Preparing:     "Preparing upload...",
	UploadStarted: "Upload started...",
	UploadPercent: "Uploading... %d%%",
	UploadBytes:   "Uploading... %s sent",
	Scan: []string{
		"Checking file signature...",
		"Scanning for malware...",
		"Verifying file integrity...",
	},
	Recognition: []string{
		"Analyzing document layout...",
		"Recognizing text...",
		"Extracting content...",
	},
	Finishing: "Finishing up...",
	Receiving: "Receiving results...",
	Completed: "Upload completed successfully",
	Failures: map[FailureKind]string{
		FailureTooLarge:        "The file exceeds the size limit.",
		FailureUnsupportedType: "This file type is not supported.",
		FailureConnection:      "Connection error. Please check your network connection.",
		FailureUnexpected:      "An unexpected error occurred. Please try again.",
	},
	Seconds: "%d s",
	Minutes: "%d:%02d min",
}

var german = &Catalog{
	Tag: language.German,
	Labels: map[Phase]string{
		PhasePreparing:    "Vorbereitung",
		PhaseUploading:    "Hochladen",
		PhaseSecurityScan: "Sicherheitsprüfung",
		PhaseRecognition:  "Texterkennung",
		PhaseComplete:     "Abgeschlossen",
		PhaseError:        "Fehler",
	},
	Preparing:     "Upload wird vorbereitet...",
	UploadStarted: "Upload gestartet...",
	UploadPercent: "Hochladen... %d%%",
	UploadBytes:   "Hochladen... %s gesendet",
	Scan: []string{
		"Dateisignatur wird geprüft...",
		"Virenscan läuft...",
		"Dateiintegrität wird überprüft...",
	},
	Recognition: []string{
		"Dokumentlayout wird analysiert...",
		"Text wird erkannt...",
		"Inhalte werden extrahiert...",
	},
	Finishing: "Wird abgeschlossen...",
	Receiving: "Ergebnisse werden empfangen...",
	Completed: "Upload erfolgreich abgeschlossen",
	Failures: map[FailureKind]string{
		FailureTooLarge:        "Die Datei überschreitet die maximale Größe.",
		FailureUnsupportedType: "Dieser Dateityp wird nicht unterstützt.",
		FailureConnection:      "Verbindungsfehler. Bitte Netzwerkverbindung prüfen.",
		FailureUnexpected:      "Ein unerwarteter Fehler ist aufgetreten. Bitte erneut versuchen.",
	},
	Seconds: "%d Sek.",
	Minutes: "%d:%02d Min.",
}

// English is first so that unmatched locales fall back to it.
var (
	catalogs = []*Catalog{english, german}
	matcher  = language.NewMatcher([]language.Tag{english.Tag, german.Tag})
)

// CatalogFor returns the best catalog for a BCP-47 locale such as "de-DE".
// Empty or unparsable locales get English.
func CatalogFor(locale string) *Catalog {
	tag, err := language.Parse(locale)
	if err != nil {
		return english
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return english
	}
	return catalogs[idx]
}
