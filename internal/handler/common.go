// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apperrors "github.com/danielsheh02/willy-wonka-factory/pkg/errors"
	"github.com/danielsheh02/willy-wonka-factory/pkg/logger"
)

// validate 请求体结构校验器，全局复用
var validate = validator.New()

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
// 非 AppError 的错误一律按内部错误处理，细节只进日志不出接口
func respondError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.WithError(err).Msg("未归类的处理器错误")
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "内部错误")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
		"fields":  appErr.Fields,
	})
}

// decodeJSON 解析并校验请求体
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败")
	}
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return apperrors.Wrap(err, apperrors.CodeInternal, "请求校验失败")
		}
		ve := &apperrors.ValidationErrors{}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				ve.Add(fe.Field(), fmt.Sprintf("不满足规则 '%s'", fe.Tag()))
			}
		}
		return ve.ToAppError()
	}
	return nil
}

// pathUUID 解析路径参数中的UUID
func pathUUID(ps httprouter.Params, name string) (uuid.UUID, error) {
	raw := ps.ByName(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, apperrors.CodeInvalidInput,
			fmt.Sprintf("无效的 %s 格式: %s", name, raw))
	}
	return id, nil
}

// parseRFC3339 解析RFC3339时间并归一化为UTC
func parseRFC3339(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(field, "时间格式无效，应为 RFC3339")
	}
	return t.UTC(), nil
}
