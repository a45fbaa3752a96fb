package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ebudnikov/dateguard/internal/calendar"
)

// CalendarHandler serves the liturgical calendar API.
type CalendarHandler struct {
	service *calendar.Service
}

// NewCalendarHandler creates a calendar handler.
func NewCalendarHandler(service *calendar.Service) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Day describes a single date. The date query parameter defaults to today.
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if param := r.URL.Query().Get("date"); param != "" {
		parsed, err := time.Parse("2006-01-02", param)
		if err != nil {
			respondError(w, http.StatusBadRequest, errInvalidDate)
			return
		}
		date = parsed
	}

	day := h.service.DescribeDay(date)
	respondJSON(w, http.StatusOK, map[string]any{
		"date": date.Format("2006-01-02"),
		"day":  day,
	})
}

// Month returns the full grid for one month.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 2099 {
		respondError(w, http.StatusBadRequest, "invalid year, expected 1900-2099")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		respondError(w, http.StatusBadRequest, "invalid month, expected 1-12")
		return
	}

	days := h.service.MonthCalendar(year, time.Month(month))
	respondJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

// Upcoming lists significant holidays within the next N days (default 30).
func (h *CalendarHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days := 30
	if param := r.URL.Query().Get("days"); param != "" {
		n, err := strconv.Atoi(param)
		if err != nil || n < 1 || n > 366 {
			respondError(w, http.StatusBadRequest, "invalid days, expected 1-366")
			return
		}
		days = n
	}

	holidays := h.service.UpcomingHolidays(time.Now(), days)
	respondJSON(w, http.StatusOK, map[string]any{
		"days":     days,
		"holidays": holidays,
	})
}

// Easter returns the Easter date of one year.
func (h *CalendarHandler) Easter(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 2099 {
		respondError(w, http.StatusBadRequest, "invalid year, expected 1900-2099")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"year":   year,
		"easter": h.service.Easter(year).Format("2006-01-02"),
	})
}

// Search finds holidays by title substring.
func (h *CalendarHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	results := h.service.FindHolidays(query)
	if results == nil {
		results = []calendar.SearchResult{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}
