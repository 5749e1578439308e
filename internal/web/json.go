package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

func (a *App) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	// 限制请求体大小并拒绝未知字段
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	// 统一 JSON 响应输出
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error().Err(err).Msg("json encode error")
	}
}

func (a *App) writeError(w http.ResponseWriter, status int, message string) {
	// 错误响应包装
	a.writeJSON(w, status, map[string]string{"error": message})
}

// serverError logs err against the request and hides it from the client.
func (a *App) serverError(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	a.writeError(w, http.StatusInternalServerError, "something went wrong")
}

func readIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func readTodoParams(r *http.Request) (int64, int64, error) {
	listID, err := readIDParam(r, "listID")
	if err != nil {
		return 0, 0, errors.New("invalid list id")
	}
	todoID, err := readIDParam(r, "todoID")
	if err != nil {
		return 0, 0, errors.New("invalid todo id")
	}
	return listID, todoID, nil
}
