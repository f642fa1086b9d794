package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/headoffice-api/internal/access"
	"github.com/headoffice-api/internal/domain"
)

// mockDirectory хранит пары руководитель -> подчинённый
type mockDirectory struct {
	reports map[int64][]int64
	err     error
}

func (m *mockDirectory) IsManagerOf(_ context.Context, _ int64, managerID, employeeID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, id := range m.reports[managerID] {
		if id == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func TestChecker_Check(t *testing.T) {
	dir := &mockDirectory{reports: map[int64][]int64{10: {20}}}
	checker := access.NewChecker(dir)

	admin := domain.Actor{UserID: 1, TenantID: 1, Role: domain.RoleAdmin}
	hr := domain.Actor{UserID: 2, TenantID: 1, Role: domain.RoleHR}
	manager := domain.Actor{UserID: 10, TenantID: 1, Role: domain.RoleManager}
	employee := domain.Actor{UserID: 20, TenantID: 1, Role: domain.RoleEmployee}
	outsider := domain.Actor{UserID: 30, TenantID: 1, Role: domain.RoleEmployee}

	tests := []struct {
		name    string
		actor   domain.Actor
		action  access.Action
		res     access.Resource
		wantErr error
	}{
		{"admin passes everything", admin, access.RecruitmentForce, access.Resource{}, nil},
		{"anyone writes own reflection", employee, access.ReviewCreateSelf, access.Resource{EmployeeID: 20}, nil},
		{"manager reviews direct report", manager, access.ReviewCreateManager, access.Resource{EmployeeID: 20}, nil},
		{"manager cannot review self", manager, access.ReviewCreateManager, access.Resource{EmployeeID: 10}, domain.ErrNotManager},
		{"manager cannot review stranger", manager, access.ReviewCreateManager, access.Resource{EmployeeID: 30}, domain.ErrNotManager},
		{"author edits", employee, access.ReviewEdit, access.Resource{EmployeeID: 20, AuthorID: 20}, nil},
		{"non-author cannot commit", manager, access.ReviewCommit, access.Resource{EmployeeID: 20, AuthorID: 20}, domain.ErrNotReviewOwner},
		{"employee views own review", employee, access.ReviewView, access.Resource{EmployeeID: 20, AuthorID: 10}, nil},
		{"manager views report review", manager, access.ReviewView, access.Resource{EmployeeID: 20, AuthorID: 20}, nil},
		{"outsider cannot view", outsider, access.ReviewView, access.Resource{EmployeeID: 20, AuthorID: 20}, domain.ErrNotManager},
		{"employee has no team view", employee, access.TeamView, access.Resource{}, domain.ErrForbidden},
		{"manager sees own team", manager, access.TeamView, access.Resource{}, nil},
		{"hr manages recruitment", hr, access.RecruitmentManage, access.Resource{}, nil},
		{"employee cannot manage recruitment", employee, access.RecruitmentManage, access.Resource{}, domain.ErrForbidden},
		{"newcomer acknowledges own policy", employee, access.OnboardingAcknowledge, access.Resource{EmployeeID: 20}, nil},
		{"others cannot acknowledge", outsider, access.OnboardingAcknowledge, access.Resource{EmployeeID: 20}, domain.ErrForbidden},
		{"uncommit is admin only", hr, access.ReviewUncommit, access.Resource{}, domain.ErrAdminOnly},
		{"force is admin only", manager, access.RecruitmentForce, access.Resource{}, domain.ErrAdminOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.Check(context.Background(), tt.actor, tt.action, tt.res)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestChecker_DirectoryError(t *testing.T) {
	boom := errors.New("db down")
	checker := access.NewChecker(&mockDirectory{err: boom})

	actor := domain.Actor{UserID: 10, TenantID: 1, Role: domain.RoleManager}
	err := checker.Check(context.Background(), actor, access.ReviewCreateManager, access.Resource{EmployeeID: 20})
	if !errors.Is(err, boom) {
		t.Errorf("expected directory error to propagate, got %v", err)
	}
}
