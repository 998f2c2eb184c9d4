package commerce

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus"
	"github.com/uptrace/bun"
)

// DashboardSummary is the per-role landing view model. Fields not relevant
// to the viewer's role stay zero.
type DashboardSummary struct {
	Role                 nexus.Role `json:"role"`
	OrderCount           int        `json:"order_count"`
	PendingApprovalCount int        `json:"pending_approval_count,omitempty"`
	TotalSpentCents      int64      `json:"total_spent_cents"`
	ActiveProductCount   int        `json:"active_product_count,omitempty"`
	RecentOrders         []*Order   `json:"recent_orders,omitempty"`
}

// DashboardService builds the summaries behind the role dashboards:
// customers see their own orders, business users see their organization,
// admins see the whole store.
type DashboardService struct {
	db     *bun.DB
	repo   RepositoryManager
	logger nexus.Logger
}

func NewDashboardService(db *bun.DB, repo RepositoryManager, logger nexus.Logger) (*DashboardService, error) {
	if db == nil || repo == nil {
		return nil, goerrors.New("dashboard service requires a database and repositories", goerrors.CategoryBadInput)
	}
	if logger == nil {
		logger = nexus.NewDefaultLogger()
	}
	return &DashboardService{db: db, repo: repo, logger: logger}, nil
}

// Summary builds the dashboard for the given user. Unknown roles get the
// customer view, mirroring how routing treats them.
func (s *DashboardService) Summary(ctx context.Context, user *nexus.User) (*DashboardSummary, error) {
	if user == nil {
		return nil, nexus.ErrNotAuthenticated
	}

	switch user.Role {
	case nexus.RoleAdmin:
		return s.adminSummary(ctx)
	case nexus.RoleBusiness:
		return s.businessSummary(ctx, user)
	default:
		return s.customerSummary(ctx, user)
	}
}

func (s *DashboardService) customerSummary(ctx context.Context, user *nexus.User) (*DashboardSummary, error) {
	summary := &DashboardSummary{Role: nexus.RoleCustomer}

	scope := func() *bun.SelectQuery {
		return s.db.NewSelect().
			Model((*Order)(nil)).
			Where("?TableAlias.user_id = ?", user.ID)
	}

	if err := s.fillOrderStats(ctx, scope, summary); err != nil {
		return nil, err
	}

	recent, err := s.repo.Orders().ListForUser(ctx, user.ID, 5)
	if err != nil {
		return nil, err
	}
	summary.RecentOrders = recent

	return summary, nil
}

func (s *DashboardService) businessSummary(ctx context.Context, user *nexus.User) (*DashboardSummary, error) {
	summary := &DashboardSummary{Role: nexus.RoleBusiness}

	if user.OrganizationID == nil {
		// business account without an organization sees only its own orders
		s.logger.Warn("business user %s has no organization, scoping to user", user.ID)
		personal, err := s.customerSummary(ctx, user)
		if err != nil {
			return nil, err
		}
		personal.Role = nexus.RoleBusiness
		return personal, nil
	}

	orgID := *user.OrganizationID

	scope := func() *bun.SelectQuery {
		return s.db.NewSelect().
			Model((*Order)(nil)).
			Where("?TableAlias.organization_id = ?", orgID)
	}

	if err := s.fillOrderStats(ctx, scope, summary); err != nil {
		return nil, err
	}

	pending, err := s.db.NewSelect().
		Model((*Order)(nil)).
		Where("?TableAlias.organization_id = ?", orgID).
		Where("?TableAlias.status = ?", OrderStatusPendingApproval).
		Count(ctx)
	if err != nil {
		return nil, err
	}
	summary.PendingApprovalCount = pending

	recent, err := s.repo.Orders().ListForOrganization(ctx, orgID, 5)
	if err != nil {
		return nil, err
	}
	summary.RecentOrders = recent

	return summary, nil
}

func (s *DashboardService) adminSummary(ctx context.Context) (*DashboardSummary, error) {
	summary := &DashboardSummary{Role: nexus.RoleAdmin}

	scope := func() *bun.SelectQuery {
		return s.db.NewSelect().Model((*Order)(nil))
	}
	if err := s.fillOrderStats(ctx, scope, summary); err != nil {
		return nil, err
	}

	pending, err := s.db.NewSelect().
		Model((*Order)(nil)).
		Where("?TableAlias.status = ?", OrderStatusPendingApproval).
		Count(ctx)
	if err != nil {
		return nil, err
	}
	summary.PendingApprovalCount = pending

	active, err := s.db.NewSelect().
		Model((*Product)(nil)).
		Where("?TableAlias.active = ?", true).
		Count(ctx)
	if err != nil {
		return nil, err
	}
	summary.ActiveProductCount = active

	return summary, nil
}

func (s *DashboardService) fillOrderStats(ctx context.Context, scope func() *bun.SelectQuery, summary *DashboardSummary) error {
	count, err := scope().Count(ctx)
	if err != nil {
		return err
	}
	summary.OrderCount = count

	var spent struct {
		Total int64 `bun:"total"`
	}
	err = scope().
		ColumnExpr("COALESCE(SUM(total_cents), 0) AS total").
		Where("?TableAlias.status NOT IN (?)", bun.In([]OrderStatus{OrderStatusDraft, OrderStatusCanceled})).
		Scan(ctx, &spent)
	if err != nil {
		return err
	}
	summary.TotalSpentCents = spent.Total

	return nil
}
