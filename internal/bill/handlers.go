package bill

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/zombor/splitzy/internal/scanning"
	"github.com/zombor/splitzy/internal/settlement"
)

// maxSplitBodyBytes caps the JSON bill snapshot
const maxSplitBodyBytes = 1 << 20

// errorResponse is the JSON body of every API error
type errorResponse struct {
	Error    string `json:"error"`
	NotABill bool   `json:"not_a_bill,omitempty"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes an error response with CORS headers set
func writeError(w http.ResponseWriter, code int, body errorResponse) {
	setCORSHeaders(w)
	writeJSON(w, code, body)
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// contentTypeFor guesses the content type of an upload from its extension
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleScanBill reads an uploaded bill photo
func (s *Server) handleScanBill(w http.ResponseWriter, r *http.Request) {
	maxSize := s.opts.MaxUploadBytes
	tooLarge := errorResponse{Error: "Image is too large. Please use an image smaller than " + humanize.IBytes(uint64(maxSize)) + "."}

	// Leave room for multipart framing around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))
	if err := r.ParseMultipartForm(maxSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Error parsing form"})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		msg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			msg = "No file was selected. Please choose a photo of the bill."
		}
		writeError(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}
	defer f.Close()

	if header.Size > maxSize {
		writeError(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "Error reading file. Please try again."})
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "The uploaded file is empty."})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFor(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	scan, err := s.service.ScanBill(r.Context(), header.Filename, data, contentType)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, scan)
	case errors.Is(err, scanning.ErrNotABill):
		writeError(w, http.StatusUnprocessableEntity, errorResponse{
			Error:    "We couldn't find a bill in that photo. Try a clearer, well-lit picture or enter the items manually.",
			NotABill: true,
		})
	case errors.Is(err, scanning.ErrUnsupportedImage):
		writeError(w, http.StatusUnsupportedMediaType, errorResponse{
			Error: "We couldn't open that file. The image format may not be supported. Please try converting to JPEG or PNG.",
		})
	case errors.Is(err, ErrExtractionUnavailable):
		writeError(w, http.StatusBadGateway, errorResponse{
			Error: "Bill reading is unavailable right now. Please try again or enter the items manually.",
		})
	default:
		writeError(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "Failed to read the bill: " + err.Error() + ". Please try again or enter the items manually.",
		})
	}
}

// handleSplitBill computes the split for a posted bill snapshot
func (s *Server) handleSplitBill(w http.ResponseWriter, r *http.Request) {
	var b settlement.Bill
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSplitBodyBytes))
	if err := dec.Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	split, err := s.service.Calculate(b)
	if err != nil {
		if errors.Is(err, settlement.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		slog.Error("Error calculating split", "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, split)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
