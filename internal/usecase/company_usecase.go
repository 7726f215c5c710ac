package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 店舗情報（自店舗のみ）
type CompanyUsecase struct {
	tx      repo.TransactionManager
	catalog CatalogInvalidator
}

func NewCompanyUsecase(tx repo.TransactionManager, catalog CatalogInvalidator) *CompanyUsecase {
	return &CompanyUsecase{tx: tx, catalog: catalog}
}

type CompanyOutput struct {
	ID         int64   `json:"id"`
	LegalName  string  `json:"legal_name"`
	FinalName  string  `json:"final_name"`
	CNPJ       string  `json:"cnpj"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	PixKey     *string `json:"pix_key"`
}

type UpdateCompanyInput struct {
	FinalName  string
	Phone      string
	Street     string
	City       string
	State      string
	PostalCode string
	// nil は変更なし、空文字なら削除
	PixKey *string
}

var stateRe = regexp.MustCompile(`^[A-Z]{2}$`)

func (u *CompanyUsecase) GetMyCompany(ctx context.Context, actor model.Actor) (CompanyOutput, error) {
	storeID, err := requireCompany(actor, model.RoleStore)
	if err != nil {
		return CompanyOutput{}, err
	}

	var out CompanyOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Companies().FindByID(ctx, storeID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}
		out = toCompanyOutput(c)
		return nil
	})
	if err != nil {
		return CompanyOutput{}, err
	}
	return out, nil
}

// UpdateMyCompany は表示名・電話・住所・PIXキーを更新する
func (u *CompanyUsecase) UpdateMyCompany(ctx context.Context, actor model.Actor, in UpdateCompanyInput) (CompanyOutput, error) {
	storeID, err := requireCompany(actor, model.RoleStore)
	if err != nil {
		return CompanyOutput{}, err
	}

	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	if in.State != "" && !stateRe.MatchString(in.State) {
		return CompanyOutput{}, NewHTTPError(http.StatusBadRequest, "state must be a 2-letter code")
	}
	if len(in.FinalName) > 255 || len(in.Street) > 255 || len(in.City) > 255 {
		return CompanyOutput{}, NewHTTPError(http.StatusBadRequest, "field too long")
	}

	var pixKey *string
	if in.PixKey != nil {
		k := strings.TrimSpace(*in.PixKey)
		if len(k) > 77 {
			return CompanyOutput{}, NewHTTPError(http.StatusBadRequest, "pix_key too long")
		}
		if k != "" {
			pixKey = &k
		}
	}

	var out CompanyOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Companies().FindByID(ctx, storeID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}
		before := toCompanyOutput(c)

		c.FinalName = strings.TrimSpace(in.FinalName)
		c.Phone = strings.TrimSpace(in.Phone)
		c.Street = strings.TrimSpace(in.Street)
		c.City = strings.TrimSpace(in.City)
		c.State = in.State
		c.PostalCode = strings.TrimSpace(in.PostalCode)
		if in.PixKey != nil {
			c.PixKey = pixKey
		}

		if err := r.Companies().Update(ctx, c); err != nil {
			return errDB()
		}
		out = toCompanyOutput(c)

		beforeJSON, _ := json.Marshal(before)
		afterJSON, _ := json.Marshal(out)
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateCompany,
			ResourceType: model.AuditResourceCompany,
			ResourceID:   c.ID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    time.Now(),
		}); err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return CompanyOutput{}, err
	}

	u.catalog.Invalidate(ctx, storeID)
	return out, nil
}

func toCompanyOutput(c model.Company) CompanyOutput {
	return CompanyOutput{
		ID:         c.ID,
		LegalName:  c.LegalName,
		FinalName:  c.FinalName,
		CNPJ:       c.CNPJ,
		Phone:      c.Phone,
		Address:    c.Address,
		Street:     c.Street,
		City:       c.City,
		State:      c.State,
		PostalCode: c.PostalCode,
		PixKey:     c.PixKey,
	}
}
