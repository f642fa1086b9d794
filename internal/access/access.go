// Package access отвечает на вопрос "может ли actor выполнить action над ресурсом".
// Каждая операция сервиса обращается сюда один раз вместо сравнения строк ролей на месте.
package access

import (
	"context"

	"github.com/headoffice-api/internal/domain"
)

// Action - проверяемое действие
type Action string

const (
	ReviewCreateSelf      Action = "review.create_self"
	ReviewCreateManager   Action = "review.create_manager"
	ReviewEdit            Action = "review.edit"
	ReviewCommit          Action = "review.commit"
	ReviewUncommit        Action = "review.uncommit"
	ReviewView            Action = "review.view"
	TeamView              Action = "team.view"
	RecruitmentManage     Action = "recruitment.manage"
	RecruitmentForce      Action = "recruitment.force"
	OnboardingPromote     Action = "onboarding.promote"
	OnboardingConfirm     Action = "onboarding.confirm_arrival"
	OnboardingAcknowledge Action = "onboarding.acknowledge"
)

// Resource описывает владельцев объекта, над которым выполняется действие
type Resource struct {
	// EmployeeID - сотрудник, которому принадлежит объект (0, если неприменимо)
	EmployeeID int64
	// AuthorID - автор объекта, например reviewer_id оценки
	AuthorID int64
}

// Directory - доступ к иерархии подчинения
type Directory interface {
	IsManagerOf(ctx context.Context, tenantID, managerID, employeeID int64) (bool, error)
}

// Checker проверяет права по ролям и иерархии
type Checker struct {
	dir Directory
}

func NewChecker(dir Directory) *Checker {
	return &Checker{dir: dir}
}

// Check возвращает nil, если действие разрешено, или ошибку вида permission
func (c *Checker) Check(ctx context.Context, actor domain.Actor, action Action, res Resource) error {
	if actor.IsAdmin() {
		return nil
	}

	switch action {
	case ReviewCreateSelf:
		return nil

	case ReviewCreateManager:
		return c.requireManagerOf(ctx, actor, res.EmployeeID)

	case ReviewEdit, ReviewCommit:
		if res.AuthorID != actor.UserID {
			return domain.ErrNotReviewOwner
		}
		return nil

	case ReviewView:
		if res.EmployeeID == actor.UserID || res.AuthorID == actor.UserID {
			return nil
		}
		return c.requireManagerOf(ctx, actor, res.EmployeeID)

	case TeamView:
		if actor.Role == domain.RoleEmployee {
			return domain.ErrForbidden
		}
		if res.EmployeeID == 0 || res.EmployeeID == actor.UserID {
			return nil
		}
		return c.requireManagerOf(ctx, actor, res.EmployeeID)

	case RecruitmentManage, OnboardingPromote, OnboardingConfirm:
		if actor.Role == domain.RoleHR || actor.Role == domain.RoleManager {
			return nil
		}
		return domain.ErrForbidden

	case OnboardingAcknowledge:
		if actor.Role == domain.RoleHR || actor.Role == domain.RoleManager {
			return nil
		}
		if res.EmployeeID != 0 && res.EmployeeID == actor.UserID {
			return nil
		}
		return domain.ErrForbidden

	case ReviewUncommit, RecruitmentForce:
		return domain.ErrAdminOnly
	}

	return domain.ErrForbidden
}

func (c *Checker) requireManagerOf(ctx context.Context, actor domain.Actor, employeeID int64) error {
	if employeeID == 0 || employeeID == actor.UserID {
		return domain.ErrNotManager
	}
	ok, err := c.dir.IsManagerOf(ctx, actor.TenantID, actor.UserID, employeeID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotManager
	}
	return nil
}
