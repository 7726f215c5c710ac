package model

// Actor はリクエストした人。ハンドラでJWTから作り、usecaseへ明示的に渡す。
type Actor struct {
	UserID    int64
	Role      Role
	CompanyID *int64
}

// BelongsTo はその店舗の所属か
func (a Actor) BelongsTo(storeID int64) bool {
	return a.CompanyID != nil && *a.CompanyID == storeID
}

// CartOwner はカートの持ち主。clientはユーザー単位、店舗スタッフは会社単位。
// 配達員と管理者はカートを持たない。
func (a Actor) CartOwner() (CartOwner, bool) {
	switch a.Role {
	case RoleClient:
		id := a.UserID
		return CartOwner{UserID: &id}, true
	case RoleStore:
		if a.CompanyID == nil {
			return CartOwner{}, false
		}
		id := *a.CompanyID
		return CartOwner{CompanyID: &id}, true
	default:
		return CartOwner{}, false
	}
}
