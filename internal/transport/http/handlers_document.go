package httptransport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campusbourses/internal/document"
	"campusbourses/internal/transport/http/shared"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

// DocumentService is the document lifecycle surface used by the transport
// layer.
type DocumentService interface {
	Upload(ctx context.Context, p domain.Principal, in document.UploadInput) (*document.Document, error)
	Get(ctx context.Context, p domain.Principal, id domain.DocumentID) (*document.Document, error)
	ListMine(ctx context.Context, p domain.Principal) ([]*document.Document, error)
	ListAll(ctx context.Context, p domain.Principal, unverifiedOnly bool) ([]*document.Document, error)
	Verify(ctx context.Context, p domain.Principal, id domain.DocumentID) (*document.Document, error)
	Reject(ctx context.Context, p domain.Principal, id domain.DocumentID, reason string) error
	Delete(ctx context.Context, p domain.Principal, id domain.DocumentID) error
}

type documentResponse struct {
	ID         string     `json:"id"`
	StudentID  string     `json:"student_id"`
	Kind       string     `json:"kind"`
	Filename   string     `json:"filename"`
	Size       int64      `json:"size"`
	Verified   bool       `json:"verified"`
	VerifiedBy *string    `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	UploadedAt time.Time  `json:"uploaded_at"`
}

func toDocumentResponse(doc *document.Document) documentResponse {
	resp := documentResponse{
		ID:         doc.ID.String(),
		StudentID:  doc.StudentID.String(),
		Kind:       doc.Kind.String(),
		Filename:   doc.Filename,
		Size:       doc.Size,
		Verified:   doc.Verified,
		VerifiedAt: doc.VerifiedAt,
		UploadedAt: doc.UploadedAt,
	}
	if doc.VerifiedBy != nil {
		s := doc.VerifiedBy.String()
		resp.VerifiedBy = &s
	}
	return resp
}

func toDocumentResponses(docs []*document.Document) []documentResponse {
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	return out
}

// handleUploadDocument accepts a multipart upload with a "file" part and a
// "kind" form value. The body limit leaves headroom over the document size
// ceiling for multipart framing.
func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, document.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(document.MaxFileSize); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid or oversized multipart body"))
		return
	}
	kind, err := domain.ParseDocumentKind(r.FormValue("kind"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "missing file part"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, document.MaxFileSize+1))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read file"))
		return
	}

	doc, err := h.documents.Upload(r.Context(), p, document.UploadInput{
		Kind:     kind,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	doc, err := h.documents.Get(r.Context(), p, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleListMyDocuments(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	docs, err := h.documents.ListMine(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponses(docs))
}

func (h *Handler) handleListAllDocuments(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	unverifiedOnly := r.URL.Query().Get("unverified") == "true"
	docs, err := h.documents.ListAll(r.Context(), p, unverifiedOnly)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponses(docs))
}

func (h *Handler) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	doc, err := h.documents.Verify(r.Context(), p, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRejectDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req rejectRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.documents.Reject(r.Context(), p, id, req.Reason); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.documents.Delete(r.Context(), p, id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
