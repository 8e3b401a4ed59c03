package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/models"
	"budgetpace/internal/pagination"
	"budgetpace/internal/period"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db. Open db with TranslateError so
// unique violations surface as gorm.ErrDuplicatedKey.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Ledger() Ledger { return &gormLedger{db: s.db} }
func (s *gormStore) Budgets() BudgetRepository { return &gormBudgets{db: s.db} }
func (s *gormStore) Alerts() AlertRepository { return &gormAlerts{db: s.db} }

func (s *gormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// dayAfter returns the exclusive upper bound of a closed date interval.
func dayAfter(t time.Time) time.Time {
	return period.Date(t).AddDate(0, 0, 1)
}

// gormLedger reads the ledger tables.
type gormLedger struct {
	db *gorm.DB
}

func (l *gormLedger) scoped(ctx context.Context, scope AccountScope) *gorm.DB {
	q := l.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", scope.UserID)
	if len(scope.AccountIDs) > 0 {
		q = q.Where("account_id IN ?", scope.AccountIDs)
	}
	return q
}

func (l *gormLedger) FetchTransactions(ctx context.Context, scope AccountScope, iv period.Interval) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := l.scoped(ctx, scope).
		Preload("Splits").
		Where("date >= ? AND date < ?", iv.Start, dayAfter(iv.End)).
		Order("date ASC, id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txns, nil
}

func (l *gormLedger) FetchUpcomingBills(ctx context.Context, userID string, iv period.Interval) ([]models.ScheduledBill, error) {
	var bills []models.ScheduledBill
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND due_date >= ? AND due_date < ?", userID, iv.Start, dayAfter(iv.End)).
		Order("due_date ASC").
		Find(&bills).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return bills, nil
}

func (l *gormLedger) CategoryTree(ctx context.Context, userID string) ([]models.Category, error) {
	var cats []models.Category
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Find(&cats).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return cats, nil
}

func (l *gormLedger) EarliestTransaction(ctx context.Context, scope AccountScope) (time.Time, bool, error) {
	var tx models.Transaction
	err := l.scoped(ctx, scope).Order("date ASC").Limit(1).Find(&tx).Error
	if err != nil {
		return time.Time{}, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if tx.ID == "" {
		return time.Time{}, false, nil
	}
	return tx.Date, true, nil
}

// gormBudgets persists budgets and periods.
type gormBudgets struct {
	db *gorm.DB
}

func orderedCategories(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, created_at ASC, id ASC")
}

func (r *gormBudgets) CreateBudget(ctx context.Context, b *models.Budget) error {
	db := r.db.WithContext(ctx)
	// GORM inserts a false is_active as DEFAULT, and RETURNING then writes
	// the column default back into b.
	active := b.IsActive
	if err := db.Create(b).Error; err != nil {
		return translate(err, apperrors.ErrInternalServer)
	}
	if !active {
		if err := db.Model(b).Update("is_active", false).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		b.IsActive = false
	}
	return nil
}

func (r *gormBudgets) GetBudget(ctx context.Context, userID, id string) (*models.Budget, error) {
	q := r.db.WithContext(ctx).Preload("Categories", orderedCategories).Where("id = ?", id)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var b models.Budget
	if err := q.First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &b, nil
}

func (r *gormBudgets) ListBudgets(ctx context.Context, userID string, filter BudgetFilter, page pagination.PageRequest) ([]models.Budget, int64, error) {
	page.Defaults()

	base := r.db.WithContext(ctx).Model(&models.Budget{}).Where("user_id = ?", userID)
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.BudgetType != nil {
		base = base.Where("budget_type = ?", *filter.BudgetType)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	err := base.Preload("Categories", orderedCategories).
		Order("created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, total, nil
}

func (r *gormBudgets) ListActiveBudgets(ctx context.Context) ([]models.Budget, error) {
	var budgets []models.Budget
	err := r.db.WithContext(ctx).
		Preload("Categories", orderedCategories).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

func (r *gormBudgets) UpdateBudget(ctx context.Context, b *models.Budget) error {
	db := r.db.WithContext(ctx)
	err := db.Model(b).Select("*").Omit("Categories", "CreatedAt", "DeletedAt").Updates(b).Error
	if err != nil {
		return translate(err, apperrors.ErrInternalServer)
	}

	keep := make([]string, 0, len(b.Categories))
	for i := range b.Categories {
		c := &b.Categories[i]
		c.BudgetID = b.ID
		var err error
		if c.ID == "" {
			err = db.Omit(clause.Associations).Create(c).Error
		} else {
			err = db.Model(c).Select("*").Omit(clause.Associations, "ID", "CreatedAt", "DeletedAt").Updates(c).Error
		}
		if err != nil {
			return translate(err, apperrors.ErrInternalServer)
		}
		keep = append(keep, c.ID)
	}

	stale := db.Where("budget_id = ?", b.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.BudgetCategory{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (r *gormBudgets) DeleteBudget(ctx context.Context, b *models.Budget) error {
	if err := r.db.WithContext(ctx).Delete(b).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (r *gormBudgets) ListPeriods(ctx context.Context, budgetID string, from, to time.Time) ([]models.BudgetPeriod, error) {
	var periods []models.BudgetPeriod
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("budget_id = ? AND period_start >= ? AND period_start < ?", budgetID, period.Date(from), dayAfter(to)).
		Order("period_start ASC").
		Find(&periods).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return periods, nil
}

func (r *gormBudgets) GetPeriod(ctx context.Context, budgetID string, start time.Time) (*models.BudgetPeriod, error) {
	var p models.BudgetPeriod
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("budget_id = ? AND period_start = ?", budgetID, period.Date(start)).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &p, nil
}

func (r *gormBudgets) EnsureOpenPeriod(ctx context.Context, p *models.BudgetPeriod) error {
	p.Status = models.PeriodOpen
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(p).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (r *gormBudgets) ClosePeriod(ctx context.Context, p *models.BudgetPeriod) error {
	db := r.db.WithContext(ctx)

	existing, err := r.GetPeriod(ctx, p.BudgetID, p.PeriodStart)
	if err != nil {
		return err
	}

	switch {
	case existing == nil:
		if err := db.Omit(clause.Associations).Create(p).Error; err != nil {
			return translate(err, apperrors.ErrConcurrentPeriodClose)
		}
	case existing.Status == models.PeriodClosed:
		return apperrors.ErrConcurrentPeriodClose
	default:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		res := db.Model(&models.BudgetPeriod{}).
			Where("id = ? AND status <> ?", existing.ID, models.PeriodClosed).
			Updates(map[string]interface{}{
				"period_end":      p.PeriodEnd,
				"actual_income":   p.ActualIncome,
				"actual_expenses": p.ActualExpenses,
				"total_budgeted":  p.TotalBudgeted,
				"status":          models.PeriodClosed,
				"closed_at":       p.ClosedAt,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConcurrentPeriodClose
		}
	}

	for i := range p.Categories {
		c := &p.Categories[i]
		c.BudgetPeriodID = p.ID
		if err := db.Create(c).Error; err != nil {
			return translate(err, apperrors.ErrConcurrentPeriodClose)
		}
	}
	return nil
}

// gormAlerts persists alerts.
type gormAlerts struct {
	db *gorm.DB
}

func (r *gormAlerts) UnreadDedupKeys(ctx context.Context, budgetID string) (map[string]bool, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&models.BudgetAlert{}).
		Where("budget_id = ? AND is_read = ?", budgetID, false).
		Pluck("dedup_key", &keys).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out, nil
}

func (r *gormAlerts) AppendAlerts(ctx context.Context, alerts []models.BudgetAlert) ([]models.BudgetAlert, error) {
	db := r.db.WithContext(ctx)
	created := make([]models.BudgetAlert, 0, len(alerts))
	for i := range alerts {
		a := alerts[i]
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&a)
		if res.Error != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 1 {
			created = append(created, a)
		}
	}
	return created, nil
}

func (r *gormAlerts) ListAlerts(ctx context.Context, budgetID string, unreadOnly bool, page pagination.PageRequest) ([]models.BudgetAlert, int64, error) {
	page.Defaults()

	base := r.db.WithContext(ctx).Model(&models.BudgetAlert{}).Where("budget_id = ?", budgetID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var alerts []models.BudgetAlert
	if err := base.Order("created_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&alerts).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alerts, total, nil
}

func (r *gormAlerts) CountUnread(ctx context.Context, budgetID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BudgetAlert{}).
		Where("budget_id = ? AND is_read = ?", budgetID, false).
		Count(&n).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n, nil
}

func (r *gormAlerts) GetAlert(ctx context.Context, userID, id string) (*models.BudgetAlert, error) {
	q := r.db.WithContext(ctx).Model(&models.BudgetAlert{}).Where("budget_alerts.id = ?", id)
	if userID != "" {
		q = q.Joins("JOIN budgets ON budgets.id = budget_alerts.budget_id").
			Where("budgets.user_id = ? AND budgets.deleted_at IS NULL", userID)
	}
	var a models.BudgetAlert
	if err := q.First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAlertNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &a, nil
}

func (r *gormAlerts) MarkRead(ctx context.Context, id string) error {
	return r.setFlag(ctx, id, "is_read")
}

func (r *gormAlerts) MarkEmailSent(ctx context.Context, id string) error {
	return r.setFlag(ctx, id, "is_email_sent")
}

func (r *gormAlerts) setFlag(ctx context.Context, id, column string) error {
	res := r.db.WithContext(ctx).Model(&models.BudgetAlert{}).Where("id = ?", id).Update(column, true)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAlertNotFound
	}
	return nil
}

// translate maps write errors onto the taxonomy. Model validation errors
// raised by hooks pass through unchanged; unique violations become dup.
func translate(err error, dup *apperrors.AppError) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(dup, err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}
