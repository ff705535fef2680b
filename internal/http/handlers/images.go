package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cnvrt/gemini-edit-image/internal/providers/genai"
	"github.com/cnvrt/gemini-edit-image/internal/storage"
)

const maxUploadBytes = 32 << 20

const (
	msgClientNotInitialized = "Gemini AI client not initialized. Check API Key."
	msgNoImageReturned      = "Failed to get image data from Gemini. Model might not support direct image editing/output in this way or returned text."
)

type editImageResponse struct {
	ImageData string `json:"imageData"`
	MIMEType  string `json:"mimeType"`
}

// EditImage accepts a multipart form with one image and a prompt, forwards
// both to Gemini and returns the generated image bytes.
func (a *App) EditImage(w http.ResponseWriter, r *http.Request) {
	if a.AI == nil {
		a.error(w, http.StatusInternalServerError, msgClientNotInitialized)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		a.error(w, http.StatusBadRequest, "No prompt provided")
		return
	}

	a.editPipeline(w, r, prompt, []upload{{file: file, header: header}})
}

// EditTwoImages accepts two images plus a prompt and asks Gemini for a single
// combined result. Input order is semantic: the model sees image1 before
// image2.
func (a *App) EditTwoImages(w http.ResponseWriter, r *http.Request) {
	if a.AI == nil {
		a.error(w, http.StatusInternalServerError, msgClientNotInitialized)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file1, header1, err1 := r.FormFile("image1")
	if err1 == nil {
		defer file1.Close()
	}
	file2, header2, err2 := r.FormFile("image2")
	if err2 == nil {
		defer file2.Close()
	}
	if err1 != nil || err2 != nil {
		a.error(w, http.StatusBadRequest, "Two image files are required")
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		a.error(w, http.StatusBadRequest, "No prompt provided")
		return
	}

	a.editPipeline(w, r, prompt, []upload{
		{file: file1, header: header1},
		{file: file2, header: header2},
	})
}

type upload struct {
	file   multipart.File
	header *multipart.FileHeader
}

// editPipeline runs the shared gateway flow: persist each upload to the temp
// store, push it to Gemini, issue the generation call and extract the result.
// Every temp file created here is removed before the function returns, on all
// exit paths.
func (a *App) editPipeline(w http.ResponseWriter, r *http.Request, prompt string, uploads []upload) {
	ctx := r.Context()

	var temps []*storage.TempFile
	defer func() {
		for _, f := range temps {
			a.Temp.Remove(f)
		}
	}()

	for _, up := range uploads {
		tmp, err := a.Temp.Save(ctx, up.header.Filename, uploadMIMEType(up.header), up.file)
		if err != nil {
			a.Logger.Error().Err(err).Msg("edit: failed to persist upload")
			a.errorDetails(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
			return
		}
		temps = append(temps, tmp)
	}

	refs := make([]genai.FileRef, 0, len(temps))
	for _, tmp := range temps {
		ref, err := a.AI.UploadFile(ctx, tmp.Path, tmp.MIMEType, filepath.Base(tmp.Path))
		if err != nil {
			a.Logger.Error().Err(err).Msg("edit: remote upload failed")
			a.errorDetails(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
			return
		}
		refs = append(refs, ref)
	}

	resp, err := a.AI.EditImage(ctx, prompt, refs)
	if err != nil {
		a.Logger.Error().Err(err).Msg("edit: generation call failed")
		a.errorDetails(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	img, err := genai.ExtractImage(resp)
	if err != nil {
		var noImage *genai.NoImageError
		if errors.As(err, &noImage) {
			a.errorDetails(w, http.StatusInternalServerError, msgNoImageReturned, noImage.Text)
			return
		}
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			a.errorDetails(w, http.StatusBadRequest, "Request blocked by safety settings", blocked.Reason)
			return
		}
		a.errorDetails(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	a.json(w, http.StatusOK, editImageResponse{ImageData: img.Base64Data, MIMEType: img.MIMEType})
}

// uploadMIMEType resolves the declared type of an upload: the part's own
// Content-Type, then the filename extension, then a generic image type.
func uploadMIMEType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
		return byExt
	}
	return "image/png"
}
