package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/rideshare/core/steplog"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// Handler serves the status endpoints.
type Handler struct {
	tracker *Tracker
	store   steplog.LogStore
}

// NewHandler builds a handler. A nil store disables step history.
func NewHandler(tracker *Tracker, store steplog.LogStore) *Handler {
	if store == nil {
		store = steplog.NopStore{}
	}
	return &Handler{tracker: tracker, store: store}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status returns the latest step of the current run.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Status())
}

// Passenger returns the active trip of the named passenger.
func (h *Handler) Passenger(c *gin.Context) {
	name := c.Param("name")
	st := h.tracker.Status()
	if st.Latest == nil {
		writeError(c, http.StatusNotFound, "no step recorded yet")
		return
	}
	for _, t := range st.Latest.Active {
		if t.Passenger.Name == name {
			c.JSON(http.StatusOK, t)
			return
		}
	}
	writeError(c, http.StatusNotFound, "passenger "+name+" has no active trip")
}

// Steps queries the step log: ?run_id=&from=&to=&passenger=
func (h *Handler) Steps(c *gin.Context) {
	q := steplog.LogQuery{
		RunID:     c.Query("run_id"),
		Passenger: c.Query("passenger"),
	}
	var err error
	if q.FromStep, err = intQuery(c, "from"); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if q.ToStep, err = intQuery(c, "to"); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.store.Query(c.Request.Context(), q)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []steplog.LogRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func intQuery(c *gin.Context, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, &queryError{key: key, value: s}
	}
	return v, nil
}

type queryError struct{ key, value string }

func (e *queryError) Error() string {
	return "invalid " + e.key + " parameter: " + strconv.Quote(e.value)
}
