package test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// MemoryStore keeps orders, ledger entries and products in memory.
// Guarded updates behave like the conditional SQL updates of the postgres store.
type MemoryStore struct {
	mu       sync.Mutex
	orders   map[int64]*model.Order
	records  map[int64]*model.PaymentRecord
	products map[int64]*model.Product

	nextOrder   int64
	nextRecord  int64
	nextProduct int64

	// Err is returned by every operation when set.
	Err error
	// Now stamps created and updated times.
	Now func() time.Time
}

var _ repository.Factory = (*MemoryStore)(nil)

// NewMemoryStore constructs empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[int64]*model.Order),
		records:  make(map[int64]*model.PaymentRecord),
		products: make(map[int64]*model.Product),
		Now:      time.Now,
	}
}

func (s *MemoryStore) Orders() repository.OrderRepository     { return memoryOrders{s} }
func (s *MemoryStore) Payments() repository.PaymentRepository { return memoryPayments{s} }
func (s *MemoryStore) Products() repository.ProductRepository { return memoryProducts{s} }

// AddProduct seeds catalogue entry and returns it.
func (s *MemoryStore) AddProduct(name, price string, quantity int) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProduct++
	now := s.Now()
	p := &model.Product{
		ID:        s.nextProduct,
		Name:      name,
		Category:  "general",
		Price:     decimal.RequireFromString(price),
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.products[p.ID] = p
	return *p
}

// PutOrder stores order as is, assigning id when zero.
func (s *MemoryStore) PutOrder(order model.Order) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == 0 {
		s.nextOrder++
		order.ID = s.nextOrder
	} else if order.ID > s.nextOrder {
		s.nextOrder = order.ID
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = s.Now()
	}
	stored := cloneOrder(&order)
	s.orders[order.ID] = stored
	return *cloneOrder(stored)
}

// Order returns snapshot of stored order.
func (s *MemoryStore) Order(id int64) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, false
	}
	return *cloneOrder(o), true
}

// Record returns snapshot of stored ledger entry.
func (s *MemoryStore) Record(id int64) (model.PaymentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return model.PaymentRecord{}, false
	}
	return *r, true
}

// Product returns snapshot of stored product.
func (s *MemoryStore) Product(id int64) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, false
	}
	return *p, true
}

// CompletedRecords counts ledger entries of order that reached completed.
func (s *MemoryStore) CompletedRecords(orderID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.records {
		if r.OrderID != nil && *r.OrderID == orderID && r.Status == model.PaymentStatusCompleted {
			count++
		}
	}
	return count
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = append([]model.LineItem(nil), o.Items...)
	return &c
}

type memoryOrders struct{ s *MemoryStore }

func (r memoryOrders) Create(ctx context.Context, draft model.OrderDraft) (*model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	now := s.Now()
	order := &model.Order{
		CustomerName:  draft.CustomerName,
		CustomerEmail: draft.CustomerEmail,
		CustomerPhone: draft.CustomerPhone,
		Status:        model.OrderStatusPending,
		TotalAmount:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, item := range draft.Items {
		p, ok := s.products[item.ProductID]
		if !ok {
			return nil, domainErrors.ErrNotFound
		}
		if p.Quantity < item.Quantity {
			return nil, domainErrors.ErrInsufficientStock
		}
	}
	for i, item := range draft.Items {
		p := s.products[item.ProductID]
		p.Quantity -= item.Quantity
		line := model.LineItem{
			ID:          int64(i + 1),
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    item.Quantity,
			CreatedAt:   now,
		}
		order.Items = append(order.Items, line)
		order.TotalAmount = order.TotalAmount.Add(line.Subtotal())
	}
	order.TotalAmount = order.TotalAmount.Round(model.FiatPrecision)

	s.nextOrder++
	order.ID = s.nextOrder
	s.orders[order.ID] = order
	return cloneOrder(order), nil
}

func (r memoryOrders) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r memoryOrders) List(ctx context.Context) ([]model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		result = append(result, *cloneOrder(o))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r memoryOrders) ListByStatus(ctx context.Context, status model.OrderStatus, updatedBefore time.Time, limit int) ([]model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Order
	for _, o := range s.orders {
		if o.Status == status && !o.UpdatedAt.After(updatedBefore) {
			result = append(result, *cloneOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r memoryOrders) ListAfter(ctx context.Context, status model.OrderStatus, afterID int64, limit int) ([]model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Order
	for _, o := range s.orders {
		if o.Status == status && o.ID > afterID {
			result = append(result, *cloneOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r memoryOrders) AttachTarget(ctx context.Context, a model.TargetAttachment) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	o, ok := s.orders[a.OrderID]
	if !ok || o.Status != a.From {
		return false, nil
	}

	record := a.Record
	if record.OrderID == nil {
		orderID := a.OrderID
		record.OrderID = &orderID
	}
	record.Status = model.PaymentStatusPending
	s.nextRecord++
	record.ID = s.nextRecord
	now := s.Now()
	record.ProcessedAt, record.CreatedAt, record.UpdatedAt = now, now, now
	s.records[record.ID] = &record

	method := a.Method
	o.Status = a.To
	o.PaymentMethod = &method
	o.ReceivingAddress = a.ReceivingAddress
	o.ExpectedAmount = a.ExpectedAmount
	o.SessionHandle = a.SessionHandle
	o.PaymentRecordID = &record.ID
	o.UpdatedAt = now
	return true, nil
}

func (r memoryOrders) Transition(ctx context.Context, change model.StatusChange) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	o, ok := s.orders[change.OrderID]
	if !ok || o.Status != change.From {
		return false, nil
	}

	if st := change.Settlement; st != nil {
		rec, ok := s.records[st.RecordID]
		if !ok || (rec.Status != model.PaymentStatusPending && rec.Status != st.Status) {
			return false, domainErrors.ErrStatusConflict
		}
	}

	now := s.Now()
	o.Status = change.To
	o.UpdatedAt = now

	if st := change.Settlement; st != nil {
		if rec := s.records[st.RecordID]; rec.Status == model.PaymentStatusPending {
			rec.Status = st.Status
			if st.Reference != nil {
				rec.Reference = st.Reference
			}
			if st.PayerName != nil {
				rec.PayerName = st.PayerName
			}
			if st.PayerEmail != nil {
				rec.PayerEmail = st.PayerEmail
			}
			rec.ProcessedAt = now
			rec.UpdatedAt = now
		}
	}

	if change.Restock {
		for _, item := range o.Items {
			if p, ok := s.products[item.ProductID]; ok {
				p.Quantity += item.Quantity
			}
		}
	}
	return true, nil
}

type memoryPayments struct{ s *MemoryStore }

func (r memoryPayments) Create(ctx context.Context, record model.PaymentRecord) (*model.PaymentRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if record.Status == "" {
		record.Status = model.PaymentStatusPending
	}
	s.nextRecord++
	record.ID = s.nextRecord
	now := s.Now()
	record.ProcessedAt, record.CreatedAt, record.UpdatedAt = now, now, now
	s.records[record.ID] = &record
	copied := record
	return &copied, nil
}

func (r memoryPayments) GetByID(ctx context.Context, id int64) (*model.PaymentRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r memoryPayments) List(ctx context.Context, orderID *int64) ([]model.PaymentRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.PaymentRecord
	for _, rec := range s.records {
		if orderID != nil && (rec.OrderID == nil || *rec.OrderID != *orderID) {
			continue
		}
		result = append(result, *rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r memoryPayments) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.PaymentRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if rec.Status != model.PaymentStatusPending {
		if rec.Status == status {
			copied := *rec
			return &copied, nil
		}
		return nil, domainErrors.ErrStatusConflict
	}
	now := s.Now()
	rec.Status = status
	rec.UpdatedAt = now
	if status == model.PaymentStatusCompleted {
		rec.ProcessedAt = now
	}
	copied := *rec
	return &copied, nil
}

type memoryProducts struct{ s *MemoryStore }

func (r memoryProducts) Create(ctx context.Context, product model.Product) (*model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, p := range s.products {
		if p.Name == product.Name {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	s.nextProduct++
	product.ID = s.nextProduct
	now := s.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = &product
	copied := product
	return &copied, nil
}

func (r memoryProducts) List(ctx context.Context) ([]model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
