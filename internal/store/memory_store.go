package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"aquacoop_app_echo/internal/models"
)

// MemoryStore implements Store with in-process maps. It backs the server when
// DATABASE_URL is not set and doubles as the test fixture. Atomic serializes
// all writers under one mutex and rolls back by discarding the working copy,
// so the transactional contract matches the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
	inTx bool
}

type memData struct {
	owners       map[uint]models.Owner
	connections  map[uint]models.Connection
	monthly      map[uint]models.MonthlyDuePayment
	plans        map[uint]models.InstallmentPlan
	installments map[uint]models.InstallmentPayment
	fees         map[uint]models.MiscFeePayment
	tickets      map[uint]models.UnifiedTicket
	counter      int64
	lastID       uint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

func newMemData() *memData {
	return &memData{
		owners:       make(map[uint]models.Owner),
		connections:  make(map[uint]models.Connection),
		monthly:      make(map[uint]models.MonthlyDuePayment),
		plans:        make(map[uint]models.InstallmentPlan),
		installments: make(map[uint]models.InstallmentPayment),
		fees:         make(map[uint]models.MiscFeePayment),
		tickets:      make(map[uint]models.UnifiedTicket),
	}
}

func (d *memData) clone() *memData {
	c := &memData{
		owners:       make(map[uint]models.Owner, len(d.owners)),
		connections:  make(map[uint]models.Connection, len(d.connections)),
		monthly:      make(map[uint]models.MonthlyDuePayment, len(d.monthly)),
		plans:        make(map[uint]models.InstallmentPlan, len(d.plans)),
		installments: make(map[uint]models.InstallmentPayment, len(d.installments)),
		fees:         make(map[uint]models.MiscFeePayment, len(d.fees)),
		tickets:      make(map[uint]models.UnifiedTicket, len(d.tickets)),
		counter:      d.counter,
		lastID:       d.lastID,
	}
	for k, v := range d.owners {
		c.owners[k] = v
	}
	for k, v := range d.connections {
		c.connections[k] = v
	}
	for k, v := range d.monthly {
		c.monthly[k] = v
	}
	for k, v := range d.plans {
		c.plans[k] = v
	}
	for k, v := range d.installments {
		c.installments[k] = v
	}
	for k, v := range d.fees {
		c.fees[k] = v
	}
	for k, v := range d.tickets {
		// Lines slice must not share a backing array with the snapshot.
		lines := make([]models.TicketLine, len(v.Lines))
		copy(lines, v.Lines)
		v.Lines = lines
		c.tickets[k] = v
	}
	return c
}

func (d *memData) nextID() uint {
	d.lastID++
	return d.lastID
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func deleted(at gorm.DeletedAt) bool {
	return at.Valid
}

func (s *MemoryStore) CreateOwner(ctx context.Context, owner *models.Owner) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	owner.ID = s.data.nextID()
	owner.CreatedAt = time.Now()
	owner.UpdatedAt = owner.CreatedAt
	s.data.owners[owner.ID] = *owner
	return nil
}

func (s *MemoryStore) GetOwner(ctx context.Context, id uint) (*models.Owner, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	owner, ok := s.data.owners[id]
	if !ok || deleted(owner.DeletedAt) {
		return nil, ErrNotFound
	}
	return &owner, nil
}

func (s *MemoryStore) CreateConnection(ctx context.Context, conn *models.Connection) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	conn.ID = s.data.nextID()
	conn.CreatedAt = time.Now()
	conn.UpdatedAt = conn.CreatedAt
	if conn.PaymentStatus == 0 {
		conn.PaymentStatus = models.NewStatusSet()
	}
	s.data.connections[conn.ID] = *conn
	return nil
}

func (s *MemoryStore) GetConnection(ctx context.Context, id uint) (*models.Connection, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	conn, ok := s.data.connections[id]
	if !ok || deleted(conn.DeletedAt) {
		return nil, ErrNotFound
	}
	return &conn, nil
}

// LockConnection is equivalent to GetConnection here: Atomic already holds the
// store-wide mutex, so no finer lock exists to take.
func (s *MemoryStore) LockConnection(ctx context.Context, id uint) (*models.Connection, error) {
	return s.GetConnection(ctx, id)
}

func (s *MemoryStore) UpdateConnectionStatus(ctx context.Context, id uint, status models.StatusSet) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	conn, ok := s.data.connections[id]
	if !ok || deleted(conn.DeletedAt) {
		return ErrNotFound
	}
	conn.PaymentStatus = status.Normalize()
	conn.UpdatedAt = time.Now()
	s.data.connections[id] = conn
	return nil
}

func (s *MemoryStore) CreateMonthlyPayment(ctx context.Context, p *models.MonthlyDuePayment) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	p.ID = s.data.nextID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.data.monthly[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetMonthlyPayment(ctx context.Context, id uint) (*models.MonthlyDuePayment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	p, ok := s.data.monthly[id]
	if !ok || deleted(p.DeletedAt) {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ListMonthlyPayments(ctx context.Context, connectionID uint) ([]models.MonthlyDuePayment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	var out []models.MonthlyDuePayment
	for _, p := range s.data.monthly {
		if p.ConnectionID == connectionID && !deleted(p.DeletedAt) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period().Before(out[j].Period())
	})
	return out, nil
}

func (s *MemoryStore) DeleteMonthlyPayment(ctx context.Context, id uint) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	p, ok := s.data.monthly[id]
	if !ok || deleted(p.DeletedAt) {
		return ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.data.monthly[id] = p
	return nil
}

func (s *MemoryStore) CreatePlan(ctx context.Context, plan *models.InstallmentPlan) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	plan.ID = s.data.nextID()
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	if plan.Status == "" {
		plan.Status = models.PlanStatusActive
	}
	s.data.plans[plan.ID] = *plan
	return nil
}

func (s *MemoryStore) GetPlan(ctx context.Context, id uint) (*models.InstallmentPlan, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	plan, ok := s.data.plans[id]
	if !ok || deleted(plan.DeletedAt) {
		return nil, ErrNotFound
	}
	return &plan, nil
}

func (s *MemoryStore) ListPlansByConnection(ctx context.Context, connectionID uint) ([]models.InstallmentPlan, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	var out []models.InstallmentPlan
	for _, plan := range s.data.plans {
		if plan.ConnectionID == connectionID && !deleted(plan.DeletedAt) {
			out = append(out, plan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SavePlan(ctx context.Context, plan *models.InstallmentPlan) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	if _, ok := s.data.plans[plan.ID]; !ok {
		return ErrNotFound
	}
	plan.UpdatedAt = time.Now()
	s.data.plans[plan.ID] = *plan
	return nil
}

func (s *MemoryStore) CreateInstallmentPayment(ctx context.Context, p *models.InstallmentPayment) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	p.ID = s.data.nextID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.data.installments[p.ID] = *p
	return nil
}

func (s *MemoryStore) ListInstallmentPayments(ctx context.Context, planID uint) ([]models.InstallmentPayment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	var out []models.InstallmentPayment
	for _, p := range s.data.installments {
		if p.PlanID == planID && !deleted(p.DeletedAt) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateFeePayment(ctx context.Context, p *models.MiscFeePayment) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	p.ID = s.data.nextID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.data.fees[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetFeePayment(ctx context.Context, id uint) (*models.MiscFeePayment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	p, ok := s.data.fees[id]
	if !ok || deleted(p.DeletedAt) {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) DeleteFeePayment(ctx context.Context, id uint) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	p, ok := s.data.fees[id]
	if !ok || deleted(p.DeletedAt) {
		return ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.data.fees[id] = p
	return nil
}

func (s *MemoryStore) CreateTicket(ctx context.Context, t *models.UnifiedTicket) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer s.lock()()
	t.ID = s.data.nextID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	for i := range t.Lines {
		t.Lines[i].ID = s.data.nextID()
		t.Lines[i].TicketID = t.ID
		t.Lines[i].CreatedAt = t.CreatedAt
		t.Lines[i].UpdatedAt = t.CreatedAt
	}
	stored := *t
	stored.Lines = make([]models.TicketLine, len(t.Lines))
	copy(stored.Lines, t.Lines)
	s.data.tickets[t.ID] = stored
	return nil
}

func (s *MemoryStore) GetTicket(ctx context.Context, id uint) (*models.UnifiedTicket, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer s.lock()()
	t, ok := s.data.tickets[id]
	if !ok || deleted(t.DeletedAt) {
		return nil, ErrNotFound
	}
	lines := make([]models.TicketLine, len(t.Lines))
	copy(lines, t.Lines)
	t.Lines = lines
	return &t, nil
}

func (s *MemoryStore) NextReceiptValue(ctx context.Context) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	defer s.lock()()
	s.data.counter++
	return s.data.counter, nil
}

// Atomic runs fn against a working copy of the data and swaps it in only when
// fn succeeds. The mutex is held for the whole transaction, which serializes
// concurrent tickets the way the row lock does on Postgres.
func (s *MemoryStore) Atomic(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		// Nested Atomic joins the enclosing transaction.
		return fn(s)
	}
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := &MemoryStore{data: s.data.clone(), inTx: true}
	if err := fn(working); err != nil {
		return err
	}
	s.data = working.data
	return nil
}
