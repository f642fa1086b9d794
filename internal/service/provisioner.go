package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/onboarding"
	"github.com/headoffice-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	tempPasswordLength  = 12
	tempPasswordCharset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%"
)

// Provisioner создаёт учётную запись сотрудника для кандидата.
// Вызывается внутри транзакции вызывающей операции.
type Provisioner interface {
	Provision(ctx context.Context, candidate *domain.Candidate) (*dto.ProvisionResponse, error)
}

type provisioner struct {
	userRepo       repository.UserRepository
	candidateRepo  repository.CandidateRepository
	onboardingRepo repository.OnboardingRepository
	outbox         repository.OutboxRepository
	template       onboarding.Template
}

// NewProvisioner создаёт новый экземпляр сервиса
func NewProvisioner(
	userRepo repository.UserRepository,
	candidateRepo repository.CandidateRepository,
	onboardingRepo repository.OnboardingRepository,
	outbox repository.OutboxRepository,
	template onboarding.Template,
) Provisioner {
	return &provisioner{
		userRepo:       userRepo,
		candidateRepo:  candidateRepo,
		onboardingRepo: onboardingRepo,
		outbox:         outbox,
		template:       template,
	}
}

// Provision идемпотентен: если у кандидата уже есть учётная запись, она возвращается без изменений
func (p *provisioner) Provision(ctx context.Context, candidate *domain.Candidate) (*dto.ProvisionResponse, error) {
	if candidate.UserID != nil {
		user, err := p.userRepo.GetByID(ctx, candidate.TenantID, *candidate.UserID)
		if err != nil {
			return nil, err
		}
		return &dto.ProvisionResponse{
			UserID:             user.ID,
			EmployeeNumber:     user.EmployeeNumber,
			Email:              user.Email,
			AlreadyProvisioned: true,
		}, nil
	}

	password, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash temporary password: %w", err)
	}

	user := &domain.User{
		TenantID:           candidate.TenantID,
		Email:              candidate.Email,
		FullName:           candidate.FullName(),
		PasswordHash:       string(hash),
		Role:               domain.RoleEmployee,
		ManagerID:          candidate.ManagerID,
		EmploymentStatus:   domain.EmploymentStatusPreStart,
		MustChangePassword: true,
	}
	if err := p.userRepo.CreateWithEmployeeNumber(ctx, user); err != nil {
		return nil, err
	}

	candidate.UserID = &user.ID
	if err := p.candidateRepo.Update(ctx, candidate); err != nil {
		return nil, err
	}

	var startDate *time.Time
	if candidate.ProposedStartDate != nil {
		t := time.Time(*candidate.ProposedStartDate)
		startDate = &t
	} else if candidate.OfferStartDate != nil {
		t := time.Time(*candidate.OfferStartDate)
		startDate = &t
	}

	tasks := p.template.BuildTasks(candidate.TenantID, candidate.ID, startDate)
	if err := p.onboardingRepo.CreateTasks(ctx, tasks); err != nil {
		return nil, err
	}
	items := p.template.BuildDayOne(candidate.TenantID, candidate.ID)
	if err := p.onboardingRepo.CreateDayOneItems(ctx, items); err != nil {
		return nil, err
	}

	payload := domain.EmployeeProvisionedPayload{
		CandidateID:    candidate.ID,
		UserID:         user.ID,
		ManagerID:      candidate.ManagerID,
		Email:          user.Email,
		FullName:       user.FullName,
		EmployeeNumber: user.EmployeeNumber,
	}
	if startDate != nil {
		payload.StartDate = startDate.Format(dto.DateLayout)
	}
	if err := emit(ctx, p.outbox, candidate.TenantID, domain.EventEmployeeProvisioned, payload); err != nil {
		return nil, err
	}

	return &dto.ProvisionResponse{
		UserID:            user.ID,
		EmployeeNumber:    user.EmployeeNumber,
		Email:             user.Email,
		TemporaryPassword: password,
		TasksCreated:      len(tasks),
		DayOneItems:       len(items),
	}, nil
}

func generateTempPassword(length int) (string, error) {
	limit := big.NewInt(int64(len(tempPasswordCharset)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordCharset[n.Int64()]
	}
	return string(buf), nil
}
