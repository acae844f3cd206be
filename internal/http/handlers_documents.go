package httpx

import (
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/brokerdesk/admin-console/internal/domain/access"
	"github.com/brokerdesk/admin-console/internal/domain/model"
)

const (
	// multipartOverhead leaves room for the text fields next to the file part.
	multipartOverhead = 1 << 20
	// multipartMemory is held in memory; larger parts spill to temp files.
	multipartMemory = 4 << 20
)

// UploadDocument serves POST /policies/{id}/documents (multipart).
func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	back := access.PathPolicies + "/" + policyID

	r.Body = http.MaxBytesReader(w, r.Body, model.MaxDocumentSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		addNotice(r.Context(), Notice{Kind: NoticeError, Message: "File is too large (max 10 MB)"})
		h.finish(w, r, back)
		return
	}
	defer removeMultipart(r.MultipartForm)

	meta := model.NewDocument{
		Name:   r.FormValue("name"),
		Issued: formDate(r, "issued"),
		Status: model.DocumentStatus(r.FormValue("status")),
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		addNotice(r.Context(), Notice{Kind: NoticeError, Message: "Please choose a file to upload"})
		h.finish(w, r, back)
		return
	}
	defer closeFile(file)

	meta.FileName = filepath.Base(header.Filename)
	meta.Size = header.Size
	if meta.Name == "" {
		meta.Name = meta.FileName
	}
	h.Records.UploadDocument(r.Context(), ViewFromContext(r.Context()), policyID, meta, file)
	h.finish(w, r, back)
}

func closeFile(f multipart.File) { _ = f.Close() }

// removeMultipart drops spilled temp files. The handler may run on a
// WithContext copy of the request, which net/http does not clean up.
func removeMultipart(form *multipart.Form) {
	if form != nil {
		_ = form.RemoveAll()
	}
}

// DownloadDocument serves GET /documents/{id}/download by redirecting to the
// backend's signed URL.
func (h *Handlers) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	link, ok := h.Records.DownloadURL(r.Context(), ViewFromContext(r.Context()), r.PathValue("id"))
	if !ok {
		back := safeRedirectFromURL(r.Header.Get("Referer"))
		if back == "" {
			back = access.PathDocuments
		}
		h.finish(w, r, back)
		return
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		h.logger().WarnContext(r.Context(), "backend returned an unusable download link")
		addNotice(r.Context(), Notice{Kind: NoticeError, Message: "Document is not available for download"})
		h.finish(w, r, access.PathDocuments)
		return
	}
	redirectTo(w, r, u.String())
}
