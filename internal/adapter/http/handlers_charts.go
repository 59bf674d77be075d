package adapthttp

import (
	"net/http"
	"strconv"
)

// chartBlankHeader marks the placeholder chart served when there are no
// entries.
const chartBlankHeader = "X-Chart-Blank"

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	img, err := s.charts.Render(r.Context(), userIDFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.PNG)))
	if img.Blank {
		w.Header().Set(chartBlankHeader, "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.PNG)
}
