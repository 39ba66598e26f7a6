package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	"github.com/dmitrijs2005/lingoplay/internal/server/services"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	maxVideoSize   = 512 << 20
	multipartInMem = 32 << 20
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.Errors{"id": errors.New("must be a positive integer")}
	}
	return id, nil
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req gameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondInvalid(w, err)
		return
	}

	game, err := h.uploads.AddGame(r.Context(), user.ID, req.Title)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newGameResponse(game))
}

func (h *Handler) handleListGames(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	q := r.URL.Query()
	var all bool
	if v := q.Get("all"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondInvalid(w, validation.Errors{"all": errors.New("must be a boolean")})
			return
		}
		all = b
	}

	list, err := h.uploads.SearchGames(r.Context(), user.ID, q.Get("title"), all)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]gameResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, newGameResponse(g))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondInvalid(w, err)
		return
	}

	game, err := h.uploads.GetGame(r.Context(), user.ID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newGameResponse(game))
}

func (h *Handler) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxVideoSize)
	if err := r.ParseMultipartForm(multipartInMem); err != nil {
		respondInvalid(w, validation.Errors{"file": errors.New("invalid multipart body")})
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := videoForm{Title: r.FormValue("title"), GameID: r.FormValue("game_id")}
	if err := form.Validate(); err != nil {
		respondInvalid(w, err)
		return
	}

	var gameID int64
	if form.GameID != "" {
		id, err := strconv.ParseInt(form.GameID, 10, 64)
		if err != nil || id <= 0 {
			respondInvalid(w, validation.Errors{"game_id": errors.New("must be a positive integer")})
			return
		}
		gameID = id
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondInvalid(w, validation.Errors{"file": errors.New("cannot be blank")})
		return
	}
	defer file.Close()

	video, err := h.uploads.AddVideo(r.Context(), services.VideoUpload{
		UserID:      user.ID,
		Title:       form.Title,
		GameID:      gameID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, h.videoResponse(r, video))
}

func (h *Handler) handleListVideos(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	list, err := h.uploads.ListVideos(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]videoResponse, 0, len(list))
	for _, v := range list {
		resp = append(resp, h.videoResponse(r, v))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		respondInvalid(w, err)
		return
	}

	video, err := h.uploads.GetVideo(r.Context(), user.ID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.videoResponse(r, video))
}

// videoResponse attaches a download link when the storage backend can
// produce one. A failure only drops the link.
func (h *Handler) videoResponse(r *http.Request, v *models.Video) videoResponse {
	url, err := h.uploads.VideoURL(r.Context(), v)
	if err != nil {
		h.logger.Warn(r.Context(), "presign failed", "video_id", v.ID, "error", err)
		url = ""
	}
	return newVideoResponse(v, url)
}
