package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"OpenEmployee/internal/employee"
	xerrors "OpenEmployee/internal/errors"
	"OpenEmployee/internal/session"
)

const maxBodyBytes = 1 << 20

// CreateSessionRequest 是创建会话的请求体。
type CreateSessionRequest struct {
	Mode  employee.Mode `json:"mode"`
	Input string        `json:"input"`
}

// InputRequest 是提交输入或单独分析的请求体。
type InputRequest struct {
	Input string `json:"input"`
}

// ListSessionsResponse 是会话列表的响应体。
type ListSessionsResponse struct {
	Sessions []*session.Session `json:"sessions"`
	Count    int                `json:"count"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.orch.CreateSession(r.Context(), req.Mode, req.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	sessions, err := s.orch.List(r.Context(), opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListSessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.orch.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.Cleanup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitInput(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.orch.SubmitInput(r.Context(), r.PathValue("id"), req.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decodeBody(w, r, &patch) {
		return
	}
	sess, err := s.orch.PatchConfig(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := s.orch.Stats(r.Context(), opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, xerrors.New(xerrors.CodeInvalidArgument, "输入不能为空"))
		return
	}
	writeJSON(w, http.StatusOK, s.orch.Analyze(req.Input))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listOptionsFromQuery 解析 status、mode、q、limit、offset、order、updated_since、updated_until。
func listOptionsFromQuery(query url.Values) ([]session.ListOption, error) {
	var opts []session.ListOption
	if raw := splitValues(query["status"]); len(raw) > 0 {
		statuses := make([]session.Status, 0, len(raw))
		for _, v := range raw {
			status := session.Status(v)
			if !session.IsValidStatus(status) {
				return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("未知的会话状态: %s", v))
			}
			statuses = append(statuses, status)
		}
		opts = append(opts, session.WithStatuses(statuses...))
	}
	if raw := splitValues(query["mode"]); len(raw) > 0 {
		modes := make([]employee.Mode, 0, len(raw))
		for _, v := range raw {
			mode := employee.Mode(v)
			if !mode.Valid() {
				return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("不支持的生成模式: %s", v))
			}
			modes = append(modes, mode)
		}
		opts = append(opts, session.WithModes(modes...))
	}
	if q := strings.TrimSpace(query.Get("q")); q != "" {
		opts = append(opts, session.WithQuery(q))
	}
	for _, field := range []struct {
		name  string
		apply func(int) session.ListOption
	}{
		{"limit", session.WithLimit},
		{"offset", session.WithOffset},
	} {
		raw := query.Get(field.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("%s 必须是非负整数", field.name))
		}
		opts = append(opts, field.apply(n))
	}
	switch strings.ToLower(query.Get("order")) {
	case "", "desc":
	case "asc":
		opts = append(opts, session.WithSortOrder(session.SortByUpdatedAsc))
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "order 仅支持 asc 或 desc")
	}
	for _, field := range []struct {
		name  string
		apply func(time.Time) session.ListOption
	}{
		{"updated_since", session.WithUpdatedSince},
		{"updated_until", session.WithUpdatedUntil},
	} {
		raw := query.Get(field.name)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, fmt.Sprintf("%s 必须是 RFC3339 时间", field.name))
		}
		opts = append(opts, field.apply(ts))
	}
	return opts, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "请求体解析失败"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	detail := errorDetail{Code: string(xerrors.CodeOf(err)), Message: err.Error()}
	if e, ok := xerrors.From(err); ok {
		detail.Message = e.Message()
		detail.Metadata = e.Metadata()
	}
	detail.Retryable = xerrors.RetryableError(err)
	writeJSON(w, xerrors.HTTPStatusOf(err), errorBody{Error: detail})
}
