package session

import (
	"net/http"

	xerrors "OpenEmployee/internal/errors"
)

const (
	CodeSessionNotFound   xerrors.Code = "SESSION_NOT_FOUND"
	CodeSessionBusy       xerrors.Code = "SESSION_BUSY"
	CodeInvalidTransition xerrors.Code = "INVALID_TRANSITION"
	CodeStageFailed       xerrors.Code = "STAGE_FAILED"
	CodeValidationFailed  xerrors.Code = "VALIDATION_FAILED"
)

var (
	// ErrSessionNotFound 表示会话不存在或已被清理。
	ErrSessionNotFound = xerrors.New(CodeSessionNotFound, "session not found")
	// ErrSessionBusy 表示会话正在处理另一次请求。
	ErrSessionBusy = xerrors.New(CodeSessionBusy, "session busy")
	// ErrSessionConflict 表示会话 ID 已存在。
	ErrSessionConflict = xerrors.New(xerrors.CodeConflict, "session already exists")
)

func init() {
	xerrors.Register(CodeSessionNotFound, xerrors.Attributes{
		Message:    "session not found",
		Severity:   xerrors.SeverityInfo,
		HTTPStatus: http.StatusNotFound,
	})
	xerrors.Register(CodeSessionBusy, xerrors.Attributes{
		Message:    "session busy",
		Severity:   xerrors.SeverityInfo,
		Retryable:  true,
		HTTPStatus: http.StatusConflict,
	})
	xerrors.Register(CodeInvalidTransition, xerrors.Attributes{
		Message:    "invalid session transition",
		Severity:   xerrors.SeverityInfo,
		HTTPStatus: http.StatusConflict,
	})
	xerrors.Register(CodeStageFailed, xerrors.Attributes{
		Message:    "pipeline stage failed",
		Severity:   xerrors.SeverityCritical,
		Alert:      true,
		HTTPStatus: http.StatusInternalServerError,
	})
	xerrors.Register(CodeValidationFailed, xerrors.Attributes{
		Message:    "configuration validation failed",
		Severity:   xerrors.SeverityWarning,
		HTTPStatus: http.StatusUnprocessableEntity,
	})
}
