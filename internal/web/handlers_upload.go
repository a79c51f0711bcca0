package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/JonMunkholm/cleaner/internal/core"
	"github.com/JonMunkholm/cleaner/internal/dataset"
	"github.com/JonMunkholm/cleaner/internal/pipeline"
	"github.com/JonMunkholm/cleaner/internal/web/views"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/render"
)

// multipartOverhead is headroom over the file limit for boundaries and headers.
const multipartOverhead = 1 << 20

// maxMemory is how much of a multipart form is buffered before spilling to disk.
const maxMemory = 32 << 20

// handleUpload cleans the uploaded file and renders the result page.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.service.Reject(err)
		s.respondUploadError(w, r, err)
		return
	}

	res, err := s.service.Clean(r.Context(), fileName, data)
	if err != nil {
		s.respondUploadError(w, r, err)
		return
	}

	page := views.ResultPage{
		FileName:    res.FileName,
		CleanedName: res.CleanedName,
		DownloadURL: downloadURL(res.ArtifactID, res.CleanedName),
		Columns:     res.Dataset.Columns(),
		Rows:        formatRows(res.Dataset),
		Summary:     summarize(res.Report, res.Duration),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Result(page).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// cleanResponse is the JSON body of POST /api/clean.
type cleanResponse struct {
	ArtifactID  string            `json:"artifact_id"`
	FileName    string            `json:"file_name"`
	Columns     []string          `json:"columns"`
	Rows        [][]dataset.Value `json:"rows"`
	Report      pipeline.Report   `json:"report"`
	DownloadURL string            `json:"download_url"`
	DurationMS  int64             `json:"duration_ms"`
}

// handleAPIClean is the JSON flavour of handleUpload.
func (s *Server) handleAPIClean(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.service.Reject(err)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Clean(r.Context(), fileName, data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	rows := res.Dataset.Rows()
	if rows == nil {
		rows = [][]dataset.Value{}
	}

	render.JSON(w, r, cleanResponse{
		ArtifactID:  res.ArtifactID,
		FileName:    res.FileName,
		Columns:     res.Dataset.Columns(),
		Rows:        rows,
		Report:      res.Report,
		DownloadURL: downloadURL(res.ArtifactID, res.CleanedName),
		DurationMS:  res.Duration.Milliseconds(),
	})
}

// readUpload extracts the "file" part. A request without the part, or one
// that is not multipart at all, yields core.ErrMissingFile; a part with an
// empty file name yields core.ErrNoSelectedFile.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	if limit := s.service.MaxFileSize(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("%w: request exceeds %s", core.ErrFileTooLarge, humanize.IBytes(uint64(tooLarge.Limit)))
		}
		return "", nil, fmt.Errorf("%w: %v", core.ErrMissingFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// Parts sent with filename="" are stored as plain form values.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return "", nil, core.ErrNoSelectedFile
		}
		return "", nil, core.ErrMissingFile
	}
	defer file.Close()

	if header.Filename == "" {
		return "", nil, core.ErrNoSelectedFile
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func downloadURL(artifactID, name string) string {
	return "/download/" + artifactID + "/" + url.PathEscape(name)
}

func formatRows(ds *dataset.Dataset) [][]string {
	rows := make([][]string, ds.NumRows())
	for i := range rows {
		row := make([]string, ds.NumColumns())
		for j := range row {
			row[j] = dataset.Format(ds.Value(i, j))
		}
		rows[i] = row
	}
	return rows
}

func summarize(rep pipeline.Report, took time.Duration) []views.SummaryItem {
	items := []views.SummaryItem{
		{Label: "Rows in", Value: humanize.Comma(int64(rep.InputRows))},
		{Label: "Rows with missing values dropped", Value: humanize.Comma(int64(rep.NullRowsDropped))},
		{Label: "Duplicate rows dropped", Value: humanize.Comma(int64(rep.DuplicatesDropped))},
	}
	if rep.Aggregated {
		items = append(items, views.SummaryItem{
			Label: "Aggregated by country and date",
			Value: humanize.Comma(int64(rep.Groups)) + " groups",
		})
		if rep.NonNumeric > 0 {
			items = append(items, views.SummaryItem{
				Label: "Non-numeric values counted as 0",
				Value: humanize.Comma(int64(rep.NonNumeric)),
			})
		}
	}
	items = append(items,
		views.SummaryItem{Label: "Rows out", Value: humanize.Comma(int64(rep.OutputRows))},
		views.SummaryItem{Label: "Took", Value: took.Round(time.Millisecond).String()},
	)
	return items
}
