package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

// =====================
// テスト用のインメモリDB
// WithinTx は1本ずつ直列に流し、エラーなら変更を捨てる
// =====================

type memState struct {
	nextID      int64
	companies   map[int64]model.Company
	products    map[int64]model.Product
	carts       map[int64]model.Cart
	cartItems   map[int64]model.CartItem
	orders      map[int64]model.Order
	orderItems  map[int64]model.OrderItem
	adjustments []model.InventoryAdjustment
	audits      []model.AuditLog
}

func newMemState() *memState {
	return &memState{
		companies:  map[int64]model.Company{},
		products:   map[int64]model.Product{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64]model.OrderItem{},
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:      s.nextID,
		companies:   make(map[int64]model.Company, len(s.companies)),
		products:    make(map[int64]model.Product, len(s.products)),
		carts:       make(map[int64]model.Cart, len(s.carts)),
		cartItems:   make(map[int64]model.CartItem, len(s.cartItems)),
		orders:      make(map[int64]model.Order, len(s.orders)),
		orderItems:  make(map[int64]model.OrderItem, len(s.orderItems)),
		adjustments: append([]model.InventoryAdjustment(nil), s.adjustments...),
		audits:      append([]model.AuditLog(nil), s.audits...),
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = v
	}
	return c
}

type memDB struct {
	mu    sync.Mutex
	state *memState

	// true を返すとその商品の減算を「他の注文に先を越された」扱いにする
	loseDecrease func(productID int64) bool
}

func newMemDB() *memDB {
	return &memDB{state: newMemState()}
}

var _ repo.TransactionManager = (*memDB)(nil)

func (m *memDB) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{s: work, db: m}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// snapshot はコミット済みの状態のコピー
func (m *memDB) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// seed はトランザクション外で直接データを入れる
func (m *memDB) seed(fn func(s *memState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.state)
}

type memTx struct {
	s  *memState
	db *memDB
}

func (t *memTx) Orders() repo.OrderRepository         { return memOrders{t.s} }
func (t *memTx) OrderItems() repo.OrderItemRepository { return memOrderItems{t.s} }
func (t *memTx) Carts() repo.CartRepository           { return memCarts{t.s} }
func (t *memTx) CartItems() repo.CartItemRepository   { return memCartItems{t.s} }
func (t *memTx) Inventory() repo.InventoryRepository  { return memInventory{s: t.s, db: t.db} }
func (t *memTx) Products() repo.ProductRepository     { return memProducts{t.s} }
func (t *memTx) Companies() repo.CompanyRepository    { return memCompanies{t.s} }
func (t *memTx) AuditLogs() repo.AuditLogRepository   { return memAudits{t.s} }

// ---------- products ----------

type memProducts struct{ s *memState }

func (r memProducts) ListByCompany(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.s.products {
		if p.CompanyID != q.CompanyID || p.DeletedAt.Valid {
			continue
		}
		if len(q.Statuses) > 0 && !containsStatus(q.Statuses, p.Status) {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	total := int64(len(out))
	if q.Limit > 0 {
		page := q.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * q.Limit
		if start > len(out) {
			start = len(out)
		}
		end := start + q.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func containsStatus(list []model.ProductStatus, s model.ProductStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) LockByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.ID = r.s.id()
	r.s.products[p.ID] = p
	return p, nil
}

func (r memProducts) Update(ctx context.Context, p model.Product) error {
	cur, ok := r.s.products[p.ID]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	cur.Name, cur.Description, cur.Price, cur.Status = p.Name, p.Description, p.Price, p.Status
	r.s.products[p.ID] = cur
	return nil
}

func (r memProducts) SoftDelete(ctx context.Context, id int64) error {
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.s.products[id] = p
	return nil
}

// ---------- inventory ----------

type memInventory struct {
	s  *memState
	db *memDB
}

func (r memInventory) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if r.db.loseDecrease != nil && r.db.loseDecrease(productID) {
		return false, nil
	}
	p, ok := r.s.products[productID]
	if !ok || p.DeletedAt.Valid || p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	r.s.products[productID] = p
	return true, nil
}

func (r memInventory) SetStockWithAdjustment(ctx context.Context, actorUserID int64, productID int64, newStock int64, reason string) error {
	p, ok := r.s.products[productID]
	if !ok || p.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	old := p.StockQuantity
	p.StockQuantity = newStock
	r.s.products[productID] = p

	if old == newStock {
		return nil
	}
	return r.CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID:   productID,
		ActorUserID: actorUserID,
		Delta:       newStock - old,
		Reason:      reason,
	})
}

func (r memInventory) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	adj.ID = r.s.id()
	r.s.adjustments = append(r.s.adjustments, adj)
	return nil
}

// ---------- carts ----------

type memCarts struct{ s *memState }

func (r memCarts) FindByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if err := owner.Validate(); err != nil {
		return model.Cart{}, err
	}
	for _, c := range r.s.carts {
		if owner.UserID != nil && c.UserID != nil && *c.UserID == *owner.UserID {
			return c, nil
		}
		if owner.CompanyID != nil && c.CompanyID != nil && *c.CompanyID == *owner.CompanyID {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r memCarts) Create(ctx context.Context, cart model.Cart) (model.Cart, error) {
	if _, err := r.FindByOwner(ctx, cart.Owner()); err == nil {
		return model.Cart{}, repo.ErrDuplicate
	}
	cart.ID = r.s.id()
	r.s.carts[cart.ID] = cart
	return cart, nil
}

func (r memCarts) UpdateStore(ctx context.Context, cartID int64, storeID int64) error {
	c, ok := r.s.carts[cartID]
	if !ok {
		return repo.ErrNotFound
	}
	c.StoreID = storeID
	r.s.carts[cartID] = c
	return nil
}

func (r memCarts) Delete(ctx context.Context, cartID int64) error {
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			delete(r.s.cartItems, id)
		}
	}
	delete(r.s.carts, cartID)
	return nil
}

type memCartItems struct{ s *memState }

func (r memCartItems) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	out := []model.CartItem{}
	for _, it := range r.s.cartItems {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCartItems) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r memCartItems) FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error) {
	for _, it := range r.s.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r memCartItems) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	item.ID = r.s.id()
	r.s.cartItems[item.ID] = item
	return item, nil
}

func (r memCartItems) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	r.s.cartItems[cartItemID] = it
	return nil
}

func (r memCartItems) DeleteByID(ctx context.Context, cartItemID int64) error {
	if _, ok := r.s.cartItems[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.cartItems, cartItemID)
	return nil
}

func (r memCartItems) DeleteByCartID(ctx context.Context, cartID int64) error {
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

// ---------- orders ----------

type memOrders struct{ s *memState }

func (r memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByCode(ctx context.Context, code string) (model.Order, error) {
	for _, o := range r.s.orders {
		if o.Code == code {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r memOrders) Create(ctx context.Context, order model.Order) (model.Order, error) {
	if _, err := r.FindByCode(ctx, order.Code); err == nil {
		return model.Order{}, repo.ErrDuplicate
	}
	order.ID = r.s.id()
	order.CreatedAt = time.Now()
	r.s.orders[order.ID] = order
	return order, nil
}

func (r memOrders) list(match func(o model.Order) bool) []model.Order {
	out := []model.Order{}
	for _, o := range r.s.orders {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memOrders) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.UserID == userID }), nil
}

func (r memOrders) ListByStoreID(ctx context.Context, storeID int64) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.StoreID == storeID }), nil
}

func (r memOrders) ListForDriver(ctx context.Context, driverID int64, storeID int64) ([]model.Order, error) {
	return r.list(func(o model.Order) bool {
		if o.StoreID == storeID && o.Status == model.OrderStatusReadyForPickup && o.DriverID == nil {
			return true
		}
		return o.DriverID != nil && *o.DriverID == driverID &&
			(o.Status == model.OrderStatusAccepted || o.Status == model.OrderStatusOnTheWay)
	}), nil
}

func (r memOrders) UpdateStatusIf(ctx context.Context, u repo.StatusUpdate) (bool, error) {
	o, ok := r.s.orders[u.OrderID]
	if !ok || o.Status != u.From {
		return false, nil
	}
	if u.DriverID != nil && (o.DriverID == nil || *o.DriverID != *u.DriverID) {
		return false, nil
	}
	o.Status = u.To
	r.s.orders[o.ID] = o
	return true, nil
}

func (r memOrders) AcceptIfAvailable(ctx context.Context, orderID int64, driverID int64) (bool, error) {
	o, ok := r.s.orders[orderID]
	if !ok || o.Status != model.OrderStatusReadyForPickup || o.DriverID != nil {
		return false, nil
	}
	id := driverID
	o.DriverID = &id
	o.Status = model.OrderStatusAccepted
	r.s.orders[orderID] = o
	return true, nil
}

type memOrderItems struct{ s *memState }

func (r memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		it.ID = r.s.id()
		it.OrderID = orderID
		r.s.orderItems[it.ID] = it
	}
	return nil
}

func (r memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return r.ListByOrderIDs(ctx, []int64{orderID})
}

func (r memOrderItems) ListByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderItem, error) {
	want := make(map[int64]bool, len(orderIDs))
	for _, id := range orderIDs {
		want[id] = true
	}
	out := []model.OrderItem{}
	for _, it := range r.s.orderItems {
		if want[it.OrderID] {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------- companies / audit ----------

type memCompanies struct{ s *memState }

func (r memCompanies) FindByID(ctx context.Context, companyID int64) (model.Company, error) {
	c, ok := r.s.companies[companyID]
	if !ok {
		return model.Company{}, repo.ErrNotFound
	}
	return c, nil
}

func (r memCompanies) ListActive(ctx context.Context) ([]model.Company, error) {
	out := []model.Company{}
	for _, c := range r.s.companies {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCompanies) Update(ctx context.Context, c model.Company) error {
	cur, ok := r.s.companies[c.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.FinalName, cur.Phone = c.FinalName, c.Phone
	cur.Street, cur.City, cur.State, cur.PostalCode = c.Street, c.City, c.State, c.PostalCode
	cur.PixKey = c.PixKey
	r.s.companies[c.ID] = cur
	return nil
}

type memAudits struct{ s *memState }

func (r memAudits) Create(ctx context.Context, log model.AuditLog) error {
	log.ID = r.s.id()
	r.s.audits = append(r.s.audits, log)
	return nil
}

func (r memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for _, l := range r.s.audits {
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// =====================
// fixtures
// =====================

func int64p(v int64) *int64 { return &v }

func strp(s string) *string { return &s }

type fixedCodes struct {
	mu    sync.Mutex
	codes []string
}

func (g *fixedCodes) NewCode() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return c, nil
}

type nopInvalidator struct {
	mu     sync.Mutex
	stores []int64
}

func (n *nopInvalidator) Invalidate(ctx context.Context, storeID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stores = append(n.stores, storeID)
}
