package api

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/nerrad567/watermon-core/internal/submission"
)

//go:embed templates/*.html
var templateFS embed.FS

// templates are parsed once at startup; a parse error is a programming
// error and panics immediately.
var templates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"outcomeLabel": outcomeLabel,
	}).ParseFS(templateFS, "templates/*.html"),
)

// formRoom is a room with its meters, prepared for the form template.
type formRoom struct {
	Name   string
	Meters []formMeter
}

// formMeter is one input row on the reading form.
type formMeter struct {
	ID    string
	Name  string
	Value string // prefilled last raw reading, or empty
}

// formView is the data for the reading form template.
type formView struct {
	Rooms []formRoom
}

// handleForm renders the reading form.
//
// Fields are prefilled with the last known raw counter value (the stored
// value minus the meter offset) when the store can answer; any lookup
// problem degrades to an empty field.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	view := formView{}

	for _, room := range s.submissions.Rooms() {
		fr := formRoom{Name: room.Name}
		for _, m := range room.Meters {
			fm := formMeter{ID: m.ID, Name: m.Name}

			if s.latest != nil {
				if value, _, err := s.latest.LastValue(r.Context(), room.Name, m.ID); err == nil {
					fm.Value = strconv.FormatFloat(value-m.Offset, 'f', -1, 64)
				}
			}

			fr.Meters = append(fr.Meters, fm)
		}
		view.Rooms = append(view.Rooms, fr)
	}

	s.render(w, "form.html", view)
}

// handleSubmit processes the posted form and renders the outcome page.
//
// The page always renders with per-meter outcomes; validation problems
// and store failures are shown inline, never as an error page.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, "invalid form data: "+err.Error())
		return
	}

	// Only configured meter ids are read; unknown form fields are ignored.
	values := make(map[string]string)
	for _, room := range s.submissions.Rooms() {
		for _, m := range room.Meters {
			values[m.ID] = r.PostFormValue(m.ID)
		}
	}

	result := s.submissions.Submit(r.Context(), values)

	s.render(w, "result.html", result)
}

// render executes a template, falling back to a plain 500 on failure.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// outcomeLabel maps an outcome to the label shown on the result page.
func outcomeLabel(o submission.Outcome) string {
	switch o {
	case submission.OutcomeWritten:
		return "saved"
	case submission.OutcomeSkipped:
		return "skipped"
	case submission.OutcomeInvalid:
		return "invalid"
	case submission.OutcomeWriteFailed:
		return "store error"
	default:
		return string(o)
	}
}
