package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"

	auth "github.com/mind-engage/web2scorm/internal/auth/middleware"
	"github.com/mind-engage/web2scorm/internal/builds"
	"github.com/mind-engage/web2scorm/internal/rbac"
	"github.com/mind-engage/web2scorm/internal/scorm"
	"github.com/mind-engage/web2scorm/internal/scorm/parser"
	"github.com/mind-engage/web2scorm/internal/storage"
)

type Limits struct {
	MaxRequestBytes int64 // request body cap for builds and uploads
	MaxLogoBytes    int   // decoded logo cap; 0 disables the check
}

// MountPackages registers the /packages routes. The router must already
// carry a role in the request context (JWTMiddleware).
func MountPackages(r chi.Router, svc *builds.Service, schema *gojsonschema.Schema, lim Limits) {
	r.With(rbac.Require(rbac.PermPackageBuild)).Post("/", BuildPackageHandler(svc, schema, lim))
	r.With(rbac.Require(rbac.PermPackageList)).Get("/", ListPackagesHandler(svc))
	r.With(rbac.Require(rbac.PermPackageInspect)).Post("/inspect", InspectPackageHandler(lim))
	r.With(rbac.Require(rbac.PermPackageDownload)).Get("/{id}", DownloadPackageHandler(svc))
}

// POST /packages  (JSON configuration record) -> application/zip
func BuildPackageHandler(svc *builds.Service, schema *gojsonschema.Schema, lim Limits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r, lim.MaxRequestBytes)
		if !ok {
			return
		}
		fields, err := checkShape(schema, body)
		if err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(fields) > 0 {
			writeJSON(w, http.StatusBadRequest, fieldErrors{Error: "record does not match schema", Fields: fields})
			return
		}
		var rec scorm.Record
		if err := json.Unmarshal(body, &rec); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if lim.MaxLogoBytes > 0 && logoSize(rec.Logo) > lim.MaxLogoBytes {
			writeJSON(w, http.StatusUnprocessableEntity, fieldErrors{
				Error:  scorm.ErrInvalidConfig.Error(),
				Fields: []scorm.FieldError{{Field: "logo", Reason: fmt.Sprintf("larger than %d bytes", lim.MaxLogoBytes)}},
			})
			return
		}

		res, err := svc.Build(r.Context(), rec, auth.SubjectFromContext(r.Context()))
		var cerr *scorm.ConfigError
		switch {
		case errors.As(err, &cerr):
			writeJSON(w, http.StatusUnprocessableEntity, fieldErrors{Error: scorm.ErrInvalidConfig.Error(), Fields: cerr.Fields})
			return
		case errors.Is(err, scorm.ErrInvalidConfig):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case err != nil:
			http.Error(w, "build failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeArchive(w, res.Build, bytes.NewReader(res.Archive))
	}
}

// GET /packages?version=2004&limit=50&offset=0
func ListPackagesHandler(svc *builds.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.List(r.Context(), builds.ListOpts{
			Version: strings.TrimSpace(q.Get("version")),
			Limit:   parseIntDefault(q.Get("limit"), 50),
			Offset:  parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []builds.Build{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// GET /packages/{id} -> stored archive
func DownloadPackageHandler(svc *builds.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, rc, err := svc.Open(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, builds.ErrNotFound) || errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		writeArchive(w, b, rc)
	}
}

type inspectResponse struct {
	Identifier    string                `json:"identifier"`
	SchemaVersion string                `json:"schema_version"`
	Organizations []inspectOrganization `json:"organizations"`
	Resources     []inspectResource     `json:"resources"`
	Files         map[string]int64      `json:"files"`
	Report        parser.Report         `json:"report"`
	OK            bool                  `json:"ok"`
}

type inspectOrganization struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
}

type inspectResource struct {
	Identifier string   `json:"identifier"`
	Href       string   `json:"href"`
	ScormType  string   `json:"scorm_type"`
	Files      []string `json:"files"`
}

// POST /packages/inspect (multipart: file=package.zip)
func InspectPackageHandler(lim Limits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lim.MaxRequestBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, lim.MaxRequestBytes)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pkg, err := parser.ReadBytes(data)
		if err != nil {
			http.Error(w, "inspect: "+err.Error(), http.StatusBadRequest)
			return
		}

		rep := pkg.Check()
		out := inspectResponse{
			Identifier:    pkg.Manifest.Identifier,
			SchemaVersion: pkg.Manifest.SchemaVersion,
			Organizations: []inspectOrganization{},
			Resources:     []inspectResource{},
			Files:         pkg.Files,
			Report:        rep,
			OK:            rep.OK(),
		}
		for _, o := range pkg.Manifest.Organizations {
			out.Organizations = append(out.Organizations, inspectOrganization{Identifier: o.Identifier, Title: o.Title})
		}
		for _, res := range pkg.Manifest.Resources {
			out.Resources = append(out.Resources, inspectResource{
				Identifier: res.Identifier,
				Href:       res.Href,
				ScormType:  res.ScormType,
				Files:      res.Files,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

/* ---------- helpers ---------- */

type fieldErrors struct {
	Error  string             `json:"error"`
	Fields []scorm.FieldError `json:"fields"`
}

func readBody(w http.ResponseWriter, r *http.Request, max int64) ([]byte, bool) {
	var body io.Reader = r.Body
	if max > 0 {
		body = http.MaxBytesReader(w, r.Body, max)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		if tooLarge(err) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "read body", http.StatusBadRequest)
		}
		return nil, false
	}
	return b, true
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// logoSize estimates the decoded size of a base64 data URI. URLs count as zero.
func logoSize(logo string) int {
	if !strings.HasPrefix(logo, "data:") {
		return 0
	}
	i := strings.IndexByte(logo, ',')
	if i < 0 {
		return 0
	}
	payload := logo[i+1:]
	if strings.Contains(logo[:i], ";base64") {
		return len(strings.TrimRight(payload, "=")) * 3 / 4
	}
	return len(payload)
}

func writeArchive(w http.ResponseWriter, b builds.Build, body io.Reader) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, b.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(b.SizeBytes, 10))
	w.Header().Set("X-Package-ID", b.ID)
	w.Header().Set("X-Package-Digest", b.Digest)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
