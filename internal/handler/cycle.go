package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cycleconnect/server/internal/service"
)

const maxUploadBytes = 10 << 20 // 10MB

// CycleHandler handles cycle listing HTTP requests.
type CycleHandler struct {
	cycles *service.CycleService
}

// NewCycleHandler creates a new CycleHandler.
func NewCycleHandler(cycles *service.CycleService) *CycleHandler {
	return &CycleHandler{cycles: cycles}
}

// HandleRegister registers the caller's cycle listing.
// POST /api/v1/cycles, multipart fields model, cycleType, landmark and file
// field "image". Replies 201 with the persisted cycle read back from the
// database.
func (h *CycleHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "User not logged in.")
		return
	}

	// A malformed or missing multipart body surfaces as missing fields;
	// the service reports those in its fixed precondition order.
	_ = r.ParseMultipartForm(maxUploadBytes)

	in := service.RegisterCycleInput{
		Model:     r.FormValue("model"),
		CycleType: r.FormValue("cycleType"),
		Landmark:  r.FormValue("landmark"),
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			slog.Error("read cycle image upload", "error", err)
			writeError(w, http.StatusInternalServerError, "Could not read uploaded file.")
			return
		}
		in.Filename = header.Filename
		in.Data = data
		// Sniffing the bytes is more reliable than the multipart header.
		in.ContentType = http.DetectContentType(data)
	}

	cycle, err := h.cycles.Register(r.Context(), user.ID, in)
	if err != nil {
		writeFailure(w, err, "register cycle")
		return
	}

	writeSuccess(w, http.StatusCreated, toCycleDTO(cycle), "Cycle details uploaded successfully.")
}

// HandleSearch returns all active cycles matching the landmark and type
// filters, owners projected to id and full name.
// POST /api/v1/cycles/search, body {"landmark":"...","cycleType":"..."}.
func (h *CycleHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Landmark  string `json:"landmark"`
		CycleType string `json:"cycleType"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	cycles, err := h.cycles.Search(r.Context(), req.Landmark, req.CycleType)
	if err != nil {
		writeFailure(w, err, "search cycles")
		return
	}

	writeSuccess(w, http.StatusOK, toCycleDTOs(cycles), "Cycles fetched successfully.")
}

// HandleDetail returns the cycle with the given id enriched with the
// owner's full contact subset. The payload is a list with zero or one
// element; an empty list means no such cycle and is still a 200.
// GET /api/v1/cycles/{cycleId}
func (h *CycleHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	cycleID, err := strconv.ParseInt(r.PathValue("cycleId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cycle ID is required.")
		return
	}

	cycles, err := h.cycles.Detail(r.Context(), cycleID)
	if err != nil {
		writeFailure(w, err, "get cycle details")
		return
	}

	writeSuccess(w, http.StatusOK, toCycleDTOs(cycles), "Cycle details fetched successfully.")
}
