package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 管理者向けの監査ログ閲覧
type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

// 文字列のままの絞り込み条件（handlerから受け取る）
type ListAuditLogsInput struct {
	ResourceType string
	ResourceID   int64
	Action       string
	From         string
	To           string
	Limit        int
	Offset       int
}

func (u *AuditUsecase) List(ctx context.Context, actor model.Actor, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if actor.Role != model.RoleAdmin {
		return nil, NewHTTPError(http.StatusForbidden, "admin only")
	}
	if in.Limit < 0 || in.Limit > 200 || in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}

	f := repo.AuditLogFilter{Limit: in.Limit, Offset: in.Offset}

	if s := strings.TrimSpace(in.ResourceType); s != "" {
		rt := model.AuditResourceType(s)
		switch rt {
		case model.AuditResourceProduct, model.AuditResourceOrder, model.AuditResourceCompany:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = &rt
	}
	if in.ResourceID > 0 {
		id := in.ResourceID
		f.ResourceID = &id
	}
	if s := strings.TrimSpace(in.Action); s != "" {
		a := model.AuditAction(strings.ToUpper(s))
		f.Action = &a
	}

	var ok bool
	if in.From != "" {
		if f.CreatedFrom, ok = parseDateTimeRFC3339(in.From); !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid from")
		}
	}
	if in.To != "" {
		if f.CreatedTo, ok = parseDateTimeRFC3339(in.To); !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid to")
		}
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, errDB()
	}
	return logs, nil
}

// 期間パラメータ
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
