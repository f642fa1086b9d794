package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/headoffice-api/internal/access"
	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/headoffice-api/internal/kpi"
	"github.com/headoffice-api/internal/repository"
	"gorm.io/datatypes"
)

// NotificationReflectionOverdue - тип напоминания о просроченной самооценке
const NotificationReflectionOverdue = "reflection_overdue"

// ReviewSide - какая сторона пары подтверждается
type ReviewSide int

const (
	SideSelf ReviewSide = iota
	SideManager
)

// ReviewService реализует протокол слепой недельной оценки
type ReviewService interface {
	CreateSelfReflection(ctx context.Context, actor domain.Actor, req *dto.CreateSelfReflectionRequest) (*dto.ReviewResponse, error)
	CreateManagerReview(ctx context.Context, actor domain.Actor, req *dto.CreateManagerReviewRequest) (*dto.ReviewResponse, error)
	UpdateReview(ctx context.Context, actor domain.Actor, id int64, req *dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	Commit(ctx context.Context, actor domain.Actor, id int64, side ReviewSide) (*dto.CommitResponse, error)
	Uncommit(ctx context.Context, actor domain.Actor, id int64) (*dto.ReviewResponse, error)
	GetReview(ctx context.Context, actor domain.Actor, id int64) (*dto.ReviewResponse, error)
	ListReviews(ctx context.Context, actor domain.Actor, query *dto.ListReviewsQuery) ([]dto.ReviewResponse, error)
	GetMyReflectionStatus(ctx context.Context, actor domain.Actor) (*dto.ReflectionStatusResponse, error)
	GetTeamStatus(ctx context.Context, actor domain.Actor) (*dto.TeamStatusResponse, error)
	GetQuarterlyTrend(ctx context.Context, actor domain.Actor, query *dto.TrendQuery) (*dto.TrendResponse, error)
}

type reviewService struct {
	tx            repository.Transactor
	reviews       repository.ReviewRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	outbox        repository.OutboxRepository
	checker       *access.Checker
	audit         AuditLogger
	logger        *slog.Logger
	now           Clock
}

// NewReviewService создаёт новый экземпляр сервиса
func NewReviewService(
	tx repository.Transactor,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	outbox repository.OutboxRepository,
	checker *access.Checker,
	audit AuditLogger,
	logger *slog.Logger,
) ReviewService {
	return &reviewService{
		tx:            tx,
		reviews:       reviews,
		users:         users,
		notifications: notifications,
		outbox:        outbox,
		checker:       checker,
		audit:         audit,
		logger:        logger,
		now:           systemClock,
	}
}

// reviewContent - общие поля запросов на создание оценки
type reviewContent struct {
	ratings             dto.Ratings
	goals               string
	achievements        string
	areasForImprovement string
	skipWeek            bool
	skipReason          string
}

func (s *reviewService) CreateSelfReflection(ctx context.Context, actor domain.Actor, req *dto.CreateSelfReflectionRequest) (*dto.ReviewResponse, error) {
	if err := s.checker.Check(ctx, actor, access.ReviewCreateSelf, access.Resource{EmployeeID: actor.UserID}); err != nil {
		return nil, err
	}

	review, err := s.newReview(actor, actor.UserID, req.ReviewDate, true, reviewContent{
		ratings:             req.Ratings,
		goals:               req.Goals,
		achievements:        req.Achievements,
		areasForImprovement: req.AreasForImprovement,
		skipWeek:            req.SkipWeek,
		skipReason:          req.SkipReason,
	})
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, domain.ErrDuplicateRecord) {
			return nil, domain.ErrSelfReflectionExists
		}
		return nil, err
	}

	return statusView(review), nil
}

func (s *reviewService) CreateManagerReview(ctx context.Context, actor domain.Actor, req *dto.CreateManagerReviewRequest) (*dto.ReviewResponse, error) {
	if req.EmployeeID == actor.UserID {
		return nil, domain.ErrSelfManagerReview
	}
	if _, err := s.users.GetByID(ctx, actor.TenantID, req.EmployeeID); err != nil {
		return nil, err
	}
	if err := s.checker.Check(ctx, actor, access.ReviewCreateManager, access.Resource{EmployeeID: req.EmployeeID}); err != nil {
		return nil, err
	}

	review, err := s.newReview(actor, req.EmployeeID, req.ReviewDate, false, reviewContent{
		ratings:             req.Ratings,
		goals:               req.Goals,
		achievements:        req.Achievements,
		areasForImprovement: req.AreasForImprovement,
		skipWeek:            req.SkipWeek,
		skipReason:          req.SkipReason,
	})
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, domain.ErrDuplicateRecord) {
			return nil, domain.ErrManagerReviewExists
		}
		return nil, err
	}

	return authorView(review), nil
}

func (s *reviewService) newReview(actor domain.Actor, employeeID int64, reviewDate string, self bool, c reviewContent) (*domain.Review, error) {
	week, err := parseDate(reviewDate)
	if err != nil {
		return nil, err
	}
	if !kpi.IsWeekEnding(week) {
		return nil, domain.ErrInvalidWeekEnding
	}
	if err := validateRatings(c.ratings); err != nil {
		return nil, err
	}
	if c.skipWeek && strings.TrimSpace(c.skipReason) == "" {
		return nil, domain.ErrSkipReasonRequired
	}

	return &domain.Review{
		TenantID:            actor.TenantID,
		EmployeeID:          employeeID,
		ReviewerID:          actor.UserID,
		ReviewDate:          datatypes.Date(week),
		IsSelfAssessment:    self,
		TasksCompleted:      c.ratings.TasksCompleted,
		WorkVolume:          c.ratings.WorkVolume,
		ProblemSolving:      c.ratings.ProblemSolving,
		Communication:       c.ratings.Communication,
		Leadership:          c.ratings.Leadership,
		Goals:               strings.TrimSpace(c.goals),
		Achievements:        strings.TrimSpace(c.achievements),
		AreasForImprovement: strings.TrimSpace(c.areasForImprovement),
		SkipWeek:            c.skipWeek,
		SkipReason:          strings.TrimSpace(c.skipReason),
	}, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, actor domain.Actor, id int64, req *dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	if err := validateRatings(req.Ratings); err != nil {
		return nil, err
	}

	var review *domain.Review
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		review, err = s.reviews.GetForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if err := s.checker.Check(ctx, actor, access.ReviewEdit, access.Resource{EmployeeID: review.EmployeeID, AuthorID: review.ReviewerID}); err != nil {
			return err
		}
		// Администратор может исправлять подтверждённые оценки; это фиксируется в аудите
		if review.IsCommitted && !actor.IsAdmin() {
			return domain.ErrReviewLocked
		}
		if err := applyReviewChanges(review, req); err != nil {
			return err
		}

		ok, err := s.reviews.UpdateContent(ctx, review, !actor.IsAdmin())
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrReviewLocked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if review.IsCommitted {
		s.audit.LogUpdate(ctx, actor, "review", review.ID, "committed review edited by administrator", req)
	}

	if actor.UserID == review.ReviewerID {
		return authorView(review), nil
	}
	return s.present(ctx, actor, review)
}

func applyReviewChanges(review *domain.Review, req *dto.UpdateReviewRequest) error {
	applyRating(&review.TasksCompleted, req.TasksCompleted)
	applyRating(&review.WorkVolume, req.WorkVolume)
	applyRating(&review.ProblemSolving, req.ProblemSolving)
	applyRating(&review.Communication, req.Communication)
	applyRating(&review.Leadership, req.Leadership)
	if req.Goals != nil {
		review.Goals = strings.TrimSpace(*req.Goals)
	}
	if req.Achievements != nil {
		review.Achievements = strings.TrimSpace(*req.Achievements)
	}
	if req.AreasForImprovement != nil {
		review.AreasForImprovement = strings.TrimSpace(*req.AreasForImprovement)
	}
	if req.SkipWeek != nil {
		review.SkipWeek = *req.SkipWeek
	}
	if req.SkipReason != nil {
		review.SkipReason = strings.TrimSpace(*req.SkipReason)
	}
	if review.SkipWeek && review.SkipReason == "" {
		return domain.ErrSkipReasonRequired
	}
	return nil
}

// Commit подтверждает одну сторону пары. Обе строки пары блокируются, поэтому
// раскрытие происходит ровно один раз - на втором подтверждении.
func (s *reviewService) Commit(ctx context.Context, actor domain.Actor, id int64, side ReviewSide) (*dto.CommitResponse, error) {
	review, err := s.reviews.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if side == SideSelf && !review.IsSelfAssessment {
		return nil, domain.ErrNotSelfAssessment
	}
	if side == SideManager && review.IsSelfAssessment {
		return nil, domain.ErrNotManagerReview
	}
	if err := s.checker.Check(ctx, actor, access.ReviewCommit, access.Resource{EmployeeID: review.EmployeeID, AuthorID: review.ReviewerID}); err != nil {
		return nil, err
	}

	var self, manager *domain.Review
	revealed := false
	committedAt := s.now()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		self, manager, err = s.reviews.LockPair(ctx, actor.TenantID, review.EmployeeID, time.Time(review.ReviewDate))
		if err != nil {
			return err
		}

		current, other := self, manager
		if !review.IsSelfAssessment {
			current, other = manager, self
		}
		if current == nil || current.ID != review.ID {
			return domain.ErrReviewNotFound
		}
		if current.IsCommitted {
			return domain.ErrReviewAlreadyCommitted
		}

		ok, err := s.reviews.MarkCommitted(ctx, actor.TenantID, current.ID, committedAt)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrReviewAlreadyCommitted
		}
		current.IsCommitted = true
		current.CommittedAt = &committedAt

		if other == nil || !other.IsCommitted {
			return nil
		}

		revealed = true
		return emit(ctx, s.outbox, actor.TenantID, domain.EventReviewsRevealed, domain.ReviewsRevealedPayload{
			EmployeeID:      self.EmployeeID,
			ManagerID:       manager.ReviewerID,
			SelfReviewID:    self.ID,
			ManagerReviewID: manager.ID,
			ReviewDate:      formatDate(self.ReviewDate),
		})
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.CommitResponse{
		ReviewID:      review.ID,
		IsCommitted:   true,
		CommittedAt:   &committedAt,
		BothCommitted: revealed,
	}
	if revealed {
		resp.SelfReflection = fullView(self)
		resp.ManagerReview = fullView(manager)
	}
	return resp, nil
}

// Uncommit - административная отмена подтверждения, всегда фиксируется в аудите
func (s *reviewService) Uncommit(ctx context.Context, actor domain.Actor, id int64) (*dto.ReviewResponse, error) {
	review, err := s.reviews.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checker.Check(ctx, actor, access.ReviewUncommit, access.Resource{EmployeeID: review.EmployeeID, AuthorID: review.ReviewerID}); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.reviews.MarkUncommitted(ctx, actor.TenantID, review.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrReviewNotCommitted
		}
		return emit(ctx, s.outbox, actor.TenantID, domain.EventReviewUncommitted, domain.ReviewUncommittedPayload{
			ReviewID:   review.ID,
			EmployeeID: review.EmployeeID,
			ReviewerID: review.ReviewerID,
			ActorID:    actor.UserID,
			ReviewDate: formatDate(review.ReviewDate),
		})
	})
	if err != nil {
		return nil, err
	}

	review.IsCommitted = false
	review.CommittedAt = nil
	s.audit.LogUpdate(ctx, actor, "review", review.ID, "review uncommitted by administrator override", map[string]any{
		"employee_id":        review.EmployeeID,
		"review_date":        formatDate(review.ReviewDate),
		"is_self_assessment": review.IsSelfAssessment,
	})

	return fullView(review), nil
}

func (s *reviewService) GetReview(ctx context.Context, actor domain.Actor, id int64) (*dto.ReviewResponse, error) {
	review, err := s.reviews.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checker.Check(ctx, actor, access.ReviewView, access.Resource{EmployeeID: review.EmployeeID, AuthorID: review.ReviewerID}); err != nil {
		return nil, err
	}
	return s.present(ctx, actor, review)
}

func (s *reviewService) ListReviews(ctx context.Context, actor domain.Actor, query *dto.ListReviewsQuery) ([]dto.ReviewResponse, error) {
	filter := repository.ReviewFilter{}

	if query.From != nil {
		from, err := parseDate(*query.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if query.To != nil {
		to, err := parseDate(*query.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	switch {
	case query.EmployeeID != nil:
		if err := s.checker.Check(ctx, actor, access.ReviewView, access.Resource{EmployeeID: *query.EmployeeID}); err != nil {
			return nil, err
		}
		filter.EmployeeIDs = []int64{*query.EmployeeID}
	case actor.IsAdmin():
	default:
		reports, err := s.users.ListDirectReports(ctx, actor.TenantID, actor.UserID)
		if err != nil {
			return nil, err
		}
		filter.EmployeeIDs = []int64{actor.UserID}
		for _, u := range reports {
			filter.EmployeeIDs = append(filter.EmployeeIDs, u.ID)
		}
	}

	reviews, err := s.reviews.List(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, err
	}

	revealed := revealedWeeks(reviews)
	result := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		view := visibleView(actor, &reviews[i], revealed[weekKey(&reviews[i])])
		if view != nil {
			result = append(result, *view)
		}
	}
	return result, nil
}

// GetMyReflectionStatus показывает состояние самооценки за текущую неделю.
// Если самооценка за прошлую неделю не подтверждена, создаёт напоминание
// не чаще одного раза в сутки.
func (s *reviewService) GetMyReflectionStatus(ctx context.Context, actor domain.Actor) (*dto.ReflectionStatusResponse, error) {
	now := s.now()
	week := kpi.WeekEnding(now)

	self, manager, err := s.reviews.FindPair(ctx, actor.TenantID, actor.UserID, week)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReflectionStatusResponse{
		WeekEnding:             week.Format(dto.DateLayout),
		ManagerReviewCommitted: manager != nil && manager.IsCommitted,
	}
	if self != nil {
		resp.SelfReflection = statusView(self)
	}
	if self != nil && self.IsCommitted && manager != nil && manager.IsCommitted {
		resp.BothCommitted = true
		resp.SelfReflection = fullView(self)
		resp.ManagerReview = fullView(manager)
	}

	overdue, err := s.previousWeekOverdue(ctx, actor, week)
	if err != nil {
		return nil, err
	}
	resp.IsOverdue = overdue
	if overdue {
		s.remindOverdue(ctx, actor, now)
	}

	return resp, nil
}

func (s *reviewService) previousWeekOverdue(ctx context.Context, actor domain.Actor, week time.Time) (bool, error) {
	previous := week.AddDate(0, 0, -7)

	user, err := s.users.GetByID(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.CreatedAt.After(previous.Add(24 * time.Hour)) {
		return false, nil
	}

	self, _, err := s.reviews.FindPair(ctx, actor.TenantID, actor.UserID, previous)
	if err != nil {
		return false, err
	}
	return self == nil || !self.IsCommitted, nil
}

// remindOverdue создаёт напоминание, если сегодня его ещё не было. Повторный
// или параллельный вызов не плодит дубликаты в пределах суток; ошибки только логируются.
func (s *reviewService) remindOverdue(ctx context.Context, actor domain.Actor, now time.Time) {
	exists, err := s.notifications.ExistsSince(ctx, actor.TenantID, actor.UserID, NotificationReflectionOverdue, startOfDay(now))
	if err != nil {
		s.logger.Error("failed to check overdue reminder", slog.Int64("user_id", actor.UserID), slog.Any("error", err))
		return
	}
	if exists {
		return
	}

	err = s.notifications.Create(ctx, &domain.Notification{
		TenantID:  actor.TenantID,
		UserID:    actor.UserID,
		Type:      NotificationReflectionOverdue,
		Title:     "Weekly reflection overdue",
		Message:   "Your self-reflection for last week has not been committed yet.",
		CreatedAt: now,
	})
	if err != nil {
		s.logger.Error("failed to create overdue reminder", slog.Int64("user_id", actor.UserID), slog.Any("error", err))
	}
}

func (s *reviewService) GetTeamStatus(ctx context.Context, actor domain.Actor) (*dto.TeamStatusResponse, error) {
	if err := s.checker.Check(ctx, actor, access.TeamView, access.Resource{}); err != nil {
		return nil, err
	}

	now := s.now()
	week := kpi.WeekEnding(now)
	resp := &dto.TeamStatusResponse{
		WeekEnding: week.Format(dto.DateLayout),
		Members:    []dto.TeamMemberStatus{},
	}

	reports, err := s.users.ListDirectReports(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return resp, nil
	}

	ids := make([]int64, len(reports))
	for i, u := range reports {
		ids[i] = u.ID
	}
	reviews, err := s.reviews.List(ctx, actor.TenantID, repository.ReviewFilter{EmployeeIDs: ids, CommittedOnly: true})
	if err != nil {
		return nil, err
	}

	pairs := groupPairs(reviews)
	for _, u := range reports {
		member := dto.TeamMemberStatus{EmployeeID: u.ID, FullName: u.FullName}

		if p, ok := pairs[pairKey{u.ID, week.Format(dto.DateLayout)}]; ok {
			member.CurrentWeekSelf = p.self != nil
			member.CurrentWeekManager = p.manager != nil
		}

		// Список отсортирован по убыванию даты, первая полная пара - самая свежая
		for _, r := range reviews {
			if r.EmployeeID != u.ID {
				continue
			}
			p := pairs[pairKey{u.ID, formatDate(r.ReviewDate)}]
			if p.self == nil || p.manager == nil {
				continue
			}
			date := formatDate(r.ReviewDate)
			freshness := kpi.Staleness(time.Time(r.ReviewDate), now)
			managerMetrics := kpi.ComputeRatings(ratingsOf(p.manager))
			selfMetrics := kpi.ComputeRatings(ratingsOf(p.self))
			member.LastRevealedWeek = &date
			member.Freshness = &freshness
			member.ManagerMetrics = &managerMetrics
			member.SelfMetrics = &selfMetrics
			break
		}

		resp.Members = append(resp.Members, member)
	}
	return resp, nil
}

// GetQuarterlyTrend усредняет оценки раскрытых недель квартала и считает
// показатели по тем же формулам, что и для отдельной недели
func (s *reviewService) GetQuarterlyTrend(ctx context.Context, actor domain.Actor, query *dto.TrendQuery) (*dto.TrendResponse, error) {
	if query.Quarter < 1 || query.Quarter > 4 {
		return nil, domain.ErrInvalidQuarter
	}
	if err := s.checker.Check(ctx, actor, access.ReviewView, access.Resource{EmployeeID: query.EmployeeID}); err != nil {
		return nil, err
	}

	from := time.Date(query.Year, time.Month((query.Quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 3, -1)

	reviews, err := s.reviews.List(ctx, actor.TenantID, repository.ReviewFilter{
		EmployeeIDs:   []int64{query.EmployeeID},
		From:          &from,
		To:            &to,
		CommittedOnly: true,
	})
	if err != nil {
		return nil, err
	}

	var managerRatings, selfRatings []kpi.Ratings
	for _, p := range groupPairs(reviews) {
		if p.self == nil || p.manager == nil {
			continue
		}
		managerRatings = append(managerRatings, ratingsOf(p.manager))
		selfRatings = append(selfRatings, ratingsOf(p.self))
	}

	return &dto.TrendResponse{
		EmployeeID:    query.EmployeeID,
		Year:          query.Year,
		Quarter:       query.Quarter,
		RevealedWeeks: len(managerRatings),
		Manager:       kpi.Compute(kpi.Average(managerRatings)),
		Self:          kpi.Compute(kpi.Average(selfRatings)),
	}, nil
}

// present строит представление одной оценки для зрителя с учётом раскрытия пары
func (s *reviewService) present(ctx context.Context, actor domain.Actor, review *domain.Review) (*dto.ReviewResponse, error) {
	self, manager, err := s.reviews.FindPair(ctx, actor.TenantID, review.EmployeeID, time.Time(review.ReviewDate))
	if err != nil {
		return nil, err
	}
	revealed := self != nil && self.IsCommitted && manager != nil && manager.IsCommitted

	view := visibleView(actor, review, revealed)
	if view == nil {
		return nil, domain.ErrReviewNotFound
	}
	return view, nil
}

// visibleView применяет два независимых правила: числа и показатели видны только
// после совместного подтверждения (автор видит свои оценки в черновике, но без
// показателей), а свободный текст самооценки скрыт от всех, кроме самого сотрудника
// и администратора. Оценка руководителя до раскрытия не видна сотруднику вовсе (nil).
func visibleView(actor domain.Actor, review *domain.Review, revealed bool) *dto.ReviewResponse {
	var view *dto.ReviewResponse
	switch {
	case actor.IsAdmin() || revealed:
		view = fullView(review)
		view.Revealed = revealed
	case review.ReviewerID == actor.UserID:
		view = authorView(review)
	case !review.IsSelfAssessment && review.EmployeeID == actor.UserID:
		return nil
	default:
		view = statusView(review)
	}

	if review.IsSelfAssessment && !actor.IsAdmin() && review.EmployeeID != actor.UserID {
		redactText(view)
	}
	return view
}

// statusView - только статус и текст, без чисел
func statusView(r *domain.Review) *dto.ReviewResponse {
	return &dto.ReviewResponse{
		ID:                  r.ID,
		EmployeeID:          r.EmployeeID,
		ReviewerID:          r.ReviewerID,
		ReviewDate:          formatDate(r.ReviewDate),
		IsSelfAssessment:    r.IsSelfAssessment,
		IsCommitted:         r.IsCommitted,
		CommittedAt:         r.CommittedAt,
		Goals:               r.Goals,
		Achievements:        r.Achievements,
		AreasForImprovement: r.AreasForImprovement,
		SkipWeek:            r.SkipWeek,
		SkipReason:          r.SkipReason,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

// authorView - собственные оценки автора без вычисленных показателей
func authorView(r *domain.Review) *dto.ReviewResponse {
	view := statusView(r)
	view.TasksCompleted = r.TasksCompleted
	view.WorkVolume = r.WorkVolume
	view.ProblemSolving = r.ProblemSolving
	view.Communication = r.Communication
	view.Leadership = r.Leadership
	return view
}

func fullView(r *domain.Review) *dto.ReviewResponse {
	view := authorView(r)
	metrics := kpi.ComputeRatings(ratingsOf(r))
	view.Metrics = &metrics
	view.Revealed = true
	return view
}

func redactText(view *dto.ReviewResponse) {
	if view.Goals != "" {
		view.Goals = dto.RedactedText
	}
	if view.Achievements != "" {
		view.Achievements = dto.RedactedText
	}
	if view.AreasForImprovement != "" {
		view.AreasForImprovement = dto.RedactedText
	}
	if view.SkipReason != "" {
		view.SkipReason = dto.RedactedText
	}
	view.TextRedacted = true
}

func ratingsOf(r *domain.Review) kpi.Ratings {
	return kpi.Ratings{
		TasksCompleted: r.TasksCompleted,
		WorkVolume:     r.WorkVolume,
		ProblemSolving: r.ProblemSolving,
		Communication:  r.Communication,
		Leadership:     r.Leadership,
	}
}

func validateRatings(r dto.Ratings) error {
	for _, v := range []*int{r.TasksCompleted, r.WorkVolume, r.ProblemSolving, r.Communication, r.Leadership} {
		if v != nil && (*v < 1 || *v > 10) {
			return domain.ErrRatingOutOfRange
		}
	}
	return nil
}

func applyRating(dst **int, v *int) {
	if v != nil {
		value := *v
		*dst = &value
	}
}

type pairKey struct {
	employeeID int64
	week       string
}

type reviewPair struct {
	self    *domain.Review
	manager *domain.Review
}

func weekKey(r *domain.Review) pairKey {
	return pairKey{r.EmployeeID, formatDate(r.ReviewDate)}
}

func groupPairs(reviews []domain.Review) map[pairKey]reviewPair {
	pairs := make(map[pairKey]reviewPair)
	for i := range reviews {
		key := weekKey(&reviews[i])
		p := pairs[key]
		if reviews[i].IsSelfAssessment {
			p.self = &reviews[i]
		} else {
			p.manager = &reviews[i]
		}
		pairs[key] = p
	}
	return pairs
}

func revealedWeeks(reviews []domain.Review) map[pairKey]bool {
	revealed := make(map[pairKey]bool)
	for key, p := range groupPairs(reviews) {
		revealed[key] = p.self != nil && p.self.IsCommitted && p.manager != nil && p.manager.IsCommitted
	}
	return revealed
}
